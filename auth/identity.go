package auth

import "errors"

// Source tags how an identity was established.
type Source string

const (
	// SourceVerified means the identity came from a validated JWT subject.
	SourceVerified Source = "verified"
	// SourceClaimed means the identity is a caller-supplied user id that was
	// never cryptographically checked. Consumers see this tag instead of a
	// silently collapsed user id.
	SourceClaimed Source = "claimed"
)

// Identity is the acting user for one request, tagged with its trust level.
type Identity struct {
	UserID string
	Source Source
}

// Verified reports whether the identity came from a validated token.
func (i Identity) Verified() bool { return i.Source == SourceVerified }

// ErrUnauthenticated is returned when neither trust path yields an identity.
var ErrUnauthenticated = errors.New("no verified token or userId provided")

// ResolveIdentity implements the dual-path identity contract: a bearer token,
// when present and valid, wins and the body user id is ignored. A missing or
// invalid token falls back to the caller-supplied user id. The fallback path
// intentionally trusts the caller; it exists for clients that cannot attach a
// token and is surfaced to consumers through Identity.Source.
func ResolveIdentity(v *Verifier, authHeader, bodyUserID string) (Identity, error) {
	if authHeader != "" && v != nil {
		if token, ok := extractBearerToken(authHeader); ok {
			claims, err := v.Verify(token)
			if err == nil {
				return Identity{UserID: claims.Subject, Source: SourceVerified}, nil
			}
		}
	}
	if bodyUserID != "" {
		return Identity{UserID: bodyUserID, Source: SourceClaimed}, nil
	}
	return Identity{}, ErrUnauthenticated
}

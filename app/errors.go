package app

import "net/http"

// ErrorKind is the machine-readable error code surfaced to callers.
type ErrorKind string

const (
	ErrKindUnauthenticated    ErrorKind = "UNAUTHENTICATED"
	ErrKindQuotaExceeded      ErrorKind = "AI_QUOTA_EXCEEDED"
	ErrKindServiceUnavailable ErrorKind = "AI_SERVICE_UNAVAILABLE"
	ErrKindRateLimited        ErrorKind = "AI_RATE_LIMITED"
	ErrKindAnalysisFailed     ErrorKind = "AI_ANALYSIS_FAILED"
)

// apiError is a terminal pipeline failure with its HTTP mapping. No member
// of the taxonomy is retried; each is surfaced verbatim to the caller with a
// short human message and nothing internal.
type apiError struct {
	Kind    ErrorKind
	Message string
	Status  int
}

func (e *apiError) Error() string { return string(e.Kind) + ": " + e.Message }

func errUnauthenticated(message string) *apiError {
	return &apiError{Kind: ErrKindUnauthenticated, Message: message, Status: http.StatusUnauthorized}
}

func errQuotaExceeded(message string) *apiError {
	return &apiError{Kind: ErrKindQuotaExceeded, Message: message, Status: http.StatusTooManyRequests}
}

func errServiceUnavailable() *apiError {
	return &apiError{
		Kind:    ErrKindServiceUnavailable,
		Message: "Our AI service is temporarily unavailable. Please try again later.",
		Status:  http.StatusServiceUnavailable,
	}
}

func errRateLimited() *apiError {
	return &apiError{
		Kind:    ErrKindRateLimited,
		Message: "Too many requests. Please wait a moment and try again.",
		Status:  http.StatusTooManyRequests,
	}
}

func errAnalysisFailed() *apiError {
	return &apiError{
		Kind:    ErrKindAnalysisFailed,
		Message: "Unable to analyze your plant photo. Please try again.",
		Status:  http.StatusInternalServerError,
	}
}

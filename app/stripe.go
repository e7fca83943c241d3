package app

import (
	"context"
	"errors"
	"log"

	"github.com/tanmald/plant-sis/app/config"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/customer"
)

// InitStripe wires the Stripe API key from the environment.
func InitStripe() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config for stripe: %v", err)
	}
	stripe.Key = cfg.Stripe.SecretKey
}

// ensureStripeCustomer finds or creates a Stripe Customer for the given user.
// It uses user_profiles.stripe_customer_id when present, otherwise creates a
// new customer with metadata user_id = <userID>, then stores that in the
// user_profiles table.
func ensureStripeCustomer(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", errors.New("missing user id")
	}

	stripeID, err := store.GetStripeCustomerID(ctx, userID)
	if err != nil {
		return "", err
	}
	if stripeID != "" {
		return stripeID, nil
	}

	params := &stripe.CustomerParams{
		Metadata: map[string]string{
			"user_id": userID,
		},
	}
	cust, err := customer.New(params)
	if err != nil {
		return "", err
	}

	if err := store.SetStripeCustomerID(ctx, userID, cust.ID); err != nil {
		return "", err
	}

	return cust.ID, nil
}

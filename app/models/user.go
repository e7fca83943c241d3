// Package models defines subscription tier and usage tracking fields.
package models

import "time"

type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

// UserProfile is the per-user aggregate that owns the monthly AI quota
// counter. The counter resets at the first instant of the next calendar
// month and only ever increases within a cycle.
type UserProfile struct {
	ID               string    `db:"id"`
	Email            string    `db:"email"`
	DisplayName      string    `db:"display_name"`
	Tier             Tier      `db:"subscription_tier"`
	AnalysesUsed     int       `db:"ai_analyses_used_this_month"`
	UsagePeriodStart time.Time `db:"usage_period_start"`
	StripeCustomerID string    `db:"stripe_customer_id"`
	LastLogin        time.Time `db:"last_login"`
}

// Package app enforces monthly AI analysis limits for resolved users.
package app

import (
	"fmt"
	"time"

	"github.com/tanmald/plant-sis/app/config"
	"github.com/tanmald/plant-sis/app/models"
)

// FreeMonthlyLimit is how many AI analyses a free-tier user gets per
// calendar month. Pro users are unlimited.
const FreeMonthlyLimit = 3

// canUseAnalysis is the quota gate decision. It reads the counter and never
// increments it; the increment happens with the other side effects after a
// result exists. Two concurrent requests can both pass this check before
// either increments (accepted last-writer-wins design, see DESIGN.md).
func canUseAnalysis(profile models.UserProfile) bool {
	if profile.Tier == models.TierPro {
		return true
	}
	return profile.AnalysesUsed < FreeMonthlyLimit
}

// monthStartUTC returns the first instant of t's calendar month in UTC.
func monthStartUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// nextQuotaReset returns the first instant of the next calendar month in UTC.
func nextQuotaReset(now time.Time) time.Time {
	return monthStartUTC(now).AddDate(0, 1, 0)
}

func quotaExceededMessage(now time.Time) string {
	reset := nextQuotaReset(now)
	return fmt.Sprintf(
		"You have reached your monthly AI analysis limit. It resets on %s. Upgrade to Pro for unlimited access!",
		reset.Format("January 2, 2006"),
	)
}

// modelForTier maps a subscription tier to a concrete backing model. Unknown
// tiers get the free mapping; there is no error path.
func modelForTier(cfg *config.Config, tier models.Tier) string {
	if tier == models.TierPro {
		return cfg.Anthropic.ModelPro
	}
	return cfg.Anthropic.ModelFree
}

// remainingAnalyses reports how many analyses are left this cycle; pro users
// return -1 meaning unlimited.
func remainingAnalyses(profile models.UserProfile) int {
	if profile.Tier == models.TierPro {
		return -1
	}
	remaining := FreeMonthlyLimit - profile.AnalysesUsed
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// Package app provides public health and authenticated plant/quota endpoints.
package app

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/tanmald/plant-sis/auth"

	"github.com/gin-gonic/gin"
)

// Health is a public health check endpoint.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// GetQuota returns monthly AI usage info for the authenticated user.
func GetQuota(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}

	profile, err := store.GetUserProfile(c.Request.Context(), claims.Subject)
	if errors.Is(err, sql.ErrNoRows) {
		if err = store.EnsureUserProfile(c.Request.Context(), claims.Subject, claims.Email, ""); err == nil {
			profile, err = store.GetUserProfile(c.Request.Context(), claims.Subject)
		}
	}
	if err != nil {
		log.Printf("quota lookup failed user=%s err=%v", claims.Subject, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load quota"})
		return
	}

	var monthlyLimit any
	var remaining any
	if remainingCount := remainingAnalyses(profile); remainingCount >= 0 {
		monthlyLimit = FreeMonthlyLimit
		remaining = remainingCount
	}

	c.JSON(http.StatusOK, gin.H{
		"tier":         profile.Tier,
		"analysesUsed": profile.AnalysesUsed,
		"monthlyLimit": monthlyLimit,
		"remaining":    remaining,
		"resetDate":    nextQuotaReset(time.Now()).Format(time.RFC3339),
	})
}

// GetPlantAnalyses returns the newest analysis history rows for a plant.
func GetPlantAnalyses(c *gin.Context) {
	plantID := c.Param("plantid")
	if plantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing plant id"})
		return
	}

	limit := 5
	if q := c.Query("limit"); q != "" {
		if v, err := parsePositiveInt(q); err == nil && v > 0 && v <= 50 {
			limit = v
		}
	}

	analyses, err := store.ListPlantAnalyses(c.Request.Context(), plantID, limit)
	if err != nil {
		log.Printf("list analyses failed plant=%s err=%v", plantID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load analyses"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"plant_id": plantID,
		"count":    len(analyses),
		"analyses": analyses,
	})
}

// GetCheckInDue reports whether a plant's check-in is due and not snoozed.
func GetCheckInDue(c *gin.Context) {
	plantID := c.Param("plantid")
	if plantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing plant id"})
		return
	}

	sched, err := store.GetCheckInSchedule(c.Request.Context(), plantID)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusOK, gin.H{"plant_id": plantID, "due": false})
		return
	}
	if err != nil {
		log.Printf("schedule lookup failed plant=%s err=%v", plantID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load schedule"})
		return
	}

	now := time.Now()
	due := !now.Before(sched.NextCheckInDate)
	if sched.SnoozedUntil != nil && now.Before(*sched.SnoozedUntil) {
		due = false
	}

	c.JSON(http.StatusOK, gin.H{
		"plant_id":           plantID,
		"due":                due,
		"next_check_in_date": sched.NextCheckInDate,
	})
}

type snoozeRequest struct {
	Days int `json:"days"`
}

// SnoozeCheckIn pushes a plant's check-in reminder forward, default 3 days.
func SnoozeCheckIn(c *gin.Context) {
	plantID := c.Param("plantid")
	if plantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing plant id"})
		return
	}

	// Body is optional; an absent or malformed body means the default.
	var req snoozeRequest
	_ = c.ShouldBindJSON(&req)
	if req.Days <= 0 {
		req.Days = 3
	}

	until := time.Now().AddDate(0, 0, req.Days)
	if err := store.SnoozeCheckIn(c.Request.Context(), plantID, until); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no schedule for plant"})
			return
		}
		log.Printf("snooze failed plant=%s err=%v", plantID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to snooze check-in"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"plant_id":      plantID,
		"snoozed_until": until,
	})
}

// converts string to int safely
func parsePositiveInt(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Package app wires shared HTTP routes for both local and Lambda execution.
package app

import (
	"time"

	"github.com/tanmald/plant-sis/auth"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the shared HTTP router for both local and Lambda
// execution. The analyze endpoint sits outside the strict auth group because
// it resolves identity itself (verified token or claimed userId fallback).
func NewRouter() (*gin.Engine, error) {
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))

	router.GET("/health", Health)
	router.POST("/api/stripe/webhook", StripeWebhook)

	verifier, err := auth.NewVerifierFromEnv()
	if err != nil && !auth.AuthDisabled() {
		return nil, err
	}
	identityVerifier = verifier

	router.POST("/api/analyze", AnalyzePlantPhoto)

	protected := router.Group("/")
	protected.Use(auth.Middleware(verifier, auth.MiddlewareConfig{
		OnAuthenticated: func(c *gin.Context, claims *auth.Claims) error {
			return store.EnsureUserProfile(c.Request.Context(), claims.Subject, claims.Email, "")
		},
	}))
	protected.GET("/api/quota", GetQuota)
	protected.GET("/api/plants/:plantid/analyses", GetPlantAnalyses)
	protected.GET("/api/plants/:plantid/checkin/due", GetCheckInDue)
	protected.POST("/api/plants/:plantid/checkin/snooze", SnoozeCheckIn)
	protected.POST("/api/photos/upload-url", CreateUploadURL)
	protected.POST("/api/billing/create-checkout-session", CreateCheckoutSession)
	protected.POST("/api/billing/portal-session", CreatePortalSession)

	return router, nil
}

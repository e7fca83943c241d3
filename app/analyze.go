// --- analyze.go ---
// The AI photo analysis pipeline: resolve identity, gate on quota, pick a
// model for the tier, compose the prompt, call the provider, normalize the
// reply, then fan out the persistence side effects.
package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/tanmald/plant-sis/app/config"
	"github.com/tanmald/plant-sis/app/models"
	"github.com/tanmald/plant-sis/auth"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/gin-gonic/gin"
)

// analyzer performs the external provider call; swapped by tests.
var analyzer photoAnalyzer

// identityVerifier backs the dual-path identity resolution on the analyze
// endpoint. Set by NewRouter.
var identityVerifier *auth.Verifier

// InitAnalyzer wires the Anthropic client from the environment.
func InitAnalyzer() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config for analyzer: %v", err)
	}
	if cfg.Anthropic.APIKey == "" {
		log.Printf("ANTHROPIC_API_KEY not configured; analyze requests will fail")
	}
	analyzer = newAnthropicClient(cfg.Anthropic)
}

// analyzeResponse is the success body: the normalized result plus call
// metadata.
type analyzeResponse struct {
	models.AnalysisResult
	AnalysisID       string `json:"analysisId,omitempty"`
	TokensUsed       int    `json:"tokensUsed"`
	ProcessingTimeMs int64  `json:"processingTimeMs"`
}

// AnalyzePlantPhoto is the single POST entry point that turns a submitted
// plant photo into a persisted health report. Control flow is strictly
// linear; every failure after the quota gate is terminal with no retry.
func AnalyzePlantPhoto(c *gin.Context) {
	var req models.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if !req.HasImage() || !req.AnalysisType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Missing required fields: (imageUrl OR imageBase64+mediaType), analysisType",
		})
		return
	}

	// Dual-path identity: a valid bearer token wins; otherwise fall back to
	// the caller-supplied userId. The weaker path stays visible on the
	// identity tag rather than being collapsed away.
	ident, err := auth.ResolveIdentity(identityVerifier, c.GetHeader("Authorization"), req.UserID)
	if err != nil {
		respondAPIError(c, errUnauthenticated("authentication failed and no userId provided"))
		return
	}
	log.Printf("analyze request user=%s identity=%s type=%s plant=%s",
		ident.UserID, ident.Source, req.AnalysisType, plantIDOf(req.PlantData))

	ctx := c.Request.Context()

	profile, err := store.GetUserProfile(ctx, ident.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		if err = store.EnsureUserProfile(ctx, ident.UserID, "", ""); err == nil {
			profile, err = store.GetUserProfile(ctx, ident.UserID)
		}
	}
	if err != nil {
		log.Printf("quota check failed user=%s err=%v", ident.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check AI quota"})
		return
	}

	if !canUseAnalysis(profile) {
		respondAPIError(c, errQuotaExceeded(quotaExceededMessage(time.Now())))
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("LoadConfig failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load config"})
		return
	}

	model := modelForTier(cfg, profile.Tier)
	prompt := BuildPrompt(req.AnalysisType, req.PlantData)

	log.Printf("calling anthropic model=%s user=%s", model, ident.UserID)
	start := time.Now()

	out, err := analyzer.AnalyzePhoto(ctx, model, prompt, req)
	if err != nil {
		var apiErr *apiError
		if !errors.As(err, &apiErr) {
			apiErr = errAnalysisFailed()
		}
		if apiErr.Kind == ErrKindServiceUnavailable {
			raiseOpsAlert(ctx, cfg, ident.UserID, err.Error())
		}
		respondAPIError(c, apiErr)
		return
	}

	processingMs := time.Since(start).Milliseconds()
	log.Printf("ai analysis completed in %dms tokens=%d", processingMs, out.TokensUsed)

	// Parse failure is absorbed here: a malformed reply degrades to the
	// fixed fallback result instead of failing the request.
	result := ParseAnalysisResponse(out.Text)

	analysisID := runSideEffects(ctx, ident, req, result, model, out.TokensUsed, processingMs)

	c.JSON(http.StatusOK, analyzeResponse{
		AnalysisResult:   result,
		AnalysisID:       analysisID,
		TokensUsed:       out.TokensUsed,
		ProcessingTimeMs: processingMs,
	})
}

// runSideEffects persists the result and fans out the scheduling and alert
// writes. The steps are independently best-effort: a failed write is logged
// and the rest still run, nothing rolls back.
func runSideEffects(
	ctx context.Context,
	ident auth.Identity,
	req models.AnalyzeRequest,
	result models.AnalysisResult,
	model string,
	tokensUsed int,
	processingMs int64,
) string {
	plantID := plantIDOf(req.PlantData)

	analysisID, err := store.InsertAnalysis(ctx, models.AnalysisRecord{
		PlantID:          plantID,
		UserID:           ident.UserID,
		AnalysisType:     req.AnalysisType,
		Result:           result,
		AIModelUsed:      model,
		TokensUsed:       tokensUsed,
		ProcessingTimeMs: processingMs,
	})
	if err != nil {
		log.Printf("failed to save analysis user=%s err=%v", ident.UserID, err)
	}

	// The provider call was made and billed, so the counter moves even if
	// other writes fail.
	if err := store.IncrementAnalysesUsed(ctx, ident.UserID); err != nil {
		log.Printf("failed to increment ai usage user=%s err=%v", ident.UserID, err)
	}

	if plantID != "" &&
		(req.AnalysisType == models.AnalysisInitialIdentification || req.AnalysisType == models.AnalysisHealthMonitoring) {
		now := time.Now()
		sched := models.CheckInSchedule{
			PlantID:          plantID,
			NextCheckInDate:  now.Add(time.Duration(result.NextCheckInDays) * 24 * time.Hour),
			FrequencyDays:    result.NextCheckInDays,
			LastCalculatedAt: now,
			Factors: models.ScheduleFactors{
				AIModel:      model,
				HealthStatus: result.HealthStatus,
				Species:      result.Species,
				RiskFlags:    result.RiskFlags,
			},
		}
		if err := store.UpsertCheckInSchedule(ctx, sched); err != nil {
			log.Printf("failed to upsert check-in schedule plant=%s err=%v", plantID, err)
		}
	}

	if len(result.RiskFlags) > 0 && plantID != "" {
		plantName := "Your plant"
		if req.PlantData != nil && req.PlantData.CustomName != "" {
			plantName = req.PlantData.CustomName
		}
		notification := models.Notification{
			UserID:  ident.UserID,
			PlantID: plantID,
			Type:    models.NotificationHealthAlert,
			Title:   plantName + " needs attention",
			Body:    result.RiskFlags[0],
			TriggerReason: map[string]any{
				"type":        "ai_health_alert",
				"analysis_id": analysisID,
				"risk_flags":  result.RiskFlags,
			},
		}
		if err := store.InsertNotification(ctx, notification); err != nil {
			log.Printf("failed to create health alert plant=%s err=%v", plantID, err)
		}
	}

	return analysisID
}

// AnalyzeImage runs the prompt/provider/normalize slice of the pipeline
// without identity, quota, or persistence. Used by the local CLI for testing
// prompt changes against real photos.
func AnalyzeImage(ctx context.Context, imageBase64, mediaType string, analysisType models.AnalysisType, plantData *models.PlantData) (models.AnalysisResult, int, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return models.AnalysisResult{}, 0, err
	}
	req := models.AnalyzeRequest{
		ImageBase64:  imageBase64,
		MediaType:    mediaType,
		AnalysisType: analysisType,
		PlantData:    plantData,
	}
	out, err := analyzer.AnalyzePhoto(ctx, cfg.Anthropic.ModelFree, BuildPrompt(analysisType, plantData), req)
	if err != nil {
		return models.AnalysisResult{}, 0, err
	}
	return ParseAnalysisResponse(out.Text), out.TokensUsed, nil
}

// raiseOpsAlert notifies operators that the provider itself is down. This is
// the internal operational channel, distinct from user-facing health alerts.
func raiseOpsAlert(ctx context.Context, cfg *config.Config, userID, providerError string) {
	notification := models.Notification{
		UserID: userID,
		Type:   models.NotificationSystemAlert,
		Title:  "AI Service Issue: Credits Exhausted",
		Body:   "The Anthropic API is unavailable. Please check account credits.",
		TriggerReason: map[string]any{
			"type":      "api_credit_exhausted",
			"error":     providerError,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	}
	if err := store.InsertNotification(ctx, notification); err != nil {
		log.Printf("failed to record ops alert: %v", err)
	}

	if cfg.OpsQueueURL == "" {
		return
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Printf("failed to load AWS config for ops queue: %v", err)
		return
	}
	body, err := json.Marshal(notification)
	if err != nil {
		log.Printf("failed to marshal ops alert: %v", err)
		return
	}
	sqsClient := sqs.NewFromConfig(awsCfg)
	_, err = sqsClient.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    &cfg.OpsQueueURL,
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		log.Printf("failed to publish ops alert to queue: %v", err)
	}
}

func respondAPIError(c *gin.Context, apiErr *apiError) {
	c.JSON(apiErr.Status, gin.H{
		"error":   apiErr.Kind,
		"message": apiErr.Message,
	})
}

func plantIDOf(pd *models.PlantData) string {
	if pd == nil {
		return ""
	}
	return pd.PlantID
}

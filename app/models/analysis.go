// Package models defines the request, result, and persistence types for
// plant photo analysis.
package models

import "time"

// AnalysisType is the caller-declared reason for an analysis. It changes
// prompt framing but not the output schema.
type AnalysisType string

const (
	AnalysisInitialIdentification AnalysisType = "initial_identification"
	AnalysisCheckInPhoto          AnalysisType = "check_in_photo"
	AnalysisHealthMonitoring      AnalysisType = "health_monitoring"
)

// Valid reports whether t is one of the three supported analysis types.
func (t AnalysisType) Valid() bool {
	switch t {
	case AnalysisInitialIdentification, AnalysisCheckInPhoto, AnalysisHealthMonitoring:
		return true
	}
	return false
}

// HealthStatus is the four-value health enum stored with every analysis.
type HealthStatus string

const (
	HealthThriving HealthStatus = "thriving"
	HealthGood     HealthStatus = "good"
	HealthAtRisk   HealthStatus = "at_risk"
	HealthCritical HealthStatus = "critical"
)

// PlantData carries the caller's known context about the plant being
// photographed. All fields are optional.
type PlantData struct {
	PlantID    string `json:"plant_id,omitempty"`
	CustomName string `json:"custom_name,omitempty"`
	Species    string `json:"species,omitempty"`
	Location   string `json:"location,omitempty"`
}

// AnalyzeRequest is the body of POST /api/analyze. Exactly one of ImageURL
// or ImageBase64+MediaType must be present. UserID is the fallback identity
// for callers that cannot attach a verified token.
type AnalyzeRequest struct {
	ImageURL     string       `json:"imageUrl,omitempty"`
	ImageBase64  string       `json:"imageBase64,omitempty"`
	MediaType    string       `json:"mediaType,omitempty"`
	PlantData    *PlantData   `json:"plantData,omitempty"`
	AnalysisType AnalysisType `json:"analysisType"`
	UserID       string       `json:"userId,omitempty"`
}

// HasImage reports whether the request carries a usable image payload.
func (r AnalyzeRequest) HasImage() bool {
	return r.ImageURL != "" || (r.ImageBase64 != "" && r.MediaType != "")
}

// AnalysisResult is the normalized outcome of one analysis. It is immutable
// once created and persisted as an append-only history entry.
type AnalysisResult struct {
	Species         string       `json:"species,omitempty"`
	Confidence      *float64     `json:"confidence,omitempty"`
	HealthStatus    HealthStatus `json:"healthStatus"`
	Insights        []string     `json:"insights"`
	Recommendations []string     `json:"recommendations"`
	RiskFlags       []string     `json:"riskFlags"`
	NextCheckInDays int          `json:"nextCheckInDays"`
}

// AnalysisRecord is a persisted analysis history row.
type AnalysisRecord struct {
	ID               string         `json:"id"`
	PlantID          string         `json:"plant_id,omitempty"`
	UserID           string         `json:"user_id"`
	AnalysisType     AnalysisType   `json:"analysis_type"`
	Result           AnalysisResult `json:"result"`
	AIModelUsed      string         `json:"ai_model_used"`
	TokensUsed       int            `json:"tokens_used"`
	ProcessingTimeMs int64          `json:"processing_time_ms"`
	CreatedAt        time.Time      `json:"created_at"`
}

// ScheduleFactors records what the schedule calculation was based on.
type ScheduleFactors struct {
	AIModel      string       `json:"ai_model"`
	HealthStatus HealthStatus `json:"health_status"`
	Species      string       `json:"species,omitempty"`
	RiskFlags    []string     `json:"risk_flags"`
}

// CheckInSchedule is the single per-plant record of when the next health
// check is due. Each qualifying analysis replaces it wholesale.
type CheckInSchedule struct {
	PlantID          string          `json:"plant_id"`
	NextCheckInDate  time.Time       `json:"next_check_in_date"`
	FrequencyDays    int             `json:"check_in_frequency_days"`
	LastCalculatedAt time.Time       `json:"last_calculated_at"`
	Factors          ScheduleFactors `json:"calculation_factors"`
	SnoozedUntil     *time.Time      `json:"snoozed_until,omitempty"`
}

// Notification kinds. HealthAlert is user-facing; SystemAlert is the
// operational channel used when the AI provider itself is down.
const (
	NotificationHealthAlert = "health_alert"
	NotificationSystemAlert = "system_alert"
)

// Notification is an alert row with a lifecycle independent of the analysis
// that triggered it.
type Notification struct {
	UserID        string         `json:"user_id"`
	PlantID       string         `json:"plant_id,omitempty"`
	Type          string         `json:"notification_type"`
	Title         string         `json:"title"`
	Body          string         `json:"body"`
	TriggerReason map[string]any `json:"trigger_reason,omitempty"`
}

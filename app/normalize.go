package app

import (
	"encoding/json"
	"log"
	"strings"

	"github.com/tanmald/plant-sis/app/models"
)

// Fallback text returned when the provider reply carries no usable JSON.
// The pipeline never fails a request over a parse problem; callers get a
// degraded result instead.
const (
	fallbackInsight        = "Unable to analyze photo. Please try again."
	fallbackRecommendation = "Ensure photo is clear and well-lit"
	defaultCheckInDays     = 7
)

// healthStatusSynonyms maps loose provider vocabulary onto the four-value
// enum. Anything unrecognized becomes "good".
var healthStatusSynonyms = map[string]models.HealthStatus{
	"thriving":   models.HealthThriving,
	"excellent":  models.HealthThriving,
	"good":       models.HealthGood,
	"healthy":    models.HealthGood,
	"at_risk":    models.HealthAtRisk,
	"warning":    models.HealthAtRisk,
	"concerning": models.HealthAtRisk,
	"critical":   models.HealthCritical,
	"poor":       models.HealthCritical,
	"dying":      models.HealthCritical,
}

// ParseAnalysisResponse extracts and validates a structured result from
// free-form provider output. It locates the first well-formed JSON object
// substring, normalizes every field, and falls back to a fixed deterministic
// result when no JSON can be recovered.
func ParseAnalysisResponse(raw string) models.AnalysisResult {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end < start {
		log.Printf("ai response parse failure: no JSON object in output len=%d", len(raw))
		return fallbackResult()
	}

	var loose struct {
		Species         string          `json:"species"`
		Confidence      *float64        `json:"confidence"`
		HealthStatus    string          `json:"healthStatus"`
		Insights        json.RawMessage `json:"insights"`
		Recommendations json.RawMessage `json:"recommendations"`
		RiskFlags       json.RawMessage `json:"riskFlags"`
		NextCheckInDays int             `json:"nextCheckInDays"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &loose); err != nil {
		log.Printf("ai response parse failure: %v", err)
		return fallbackResult()
	}

	result := models.AnalysisResult{
		Species:         loose.Species,
		Confidence:      clampConfidence(loose.Confidence),
		HealthStatus:    normalizeHealthStatus(loose.HealthStatus),
		Insights:        stringArray(loose.Insights),
		Recommendations: stringArray(loose.Recommendations),
		RiskFlags:       stringArray(loose.RiskFlags),
		NextCheckInDays: loose.NextCheckInDays,
	}
	if result.NextCheckInDays < 1 {
		result.NextCheckInDays = defaultCheckInDays
	}
	return result
}

func fallbackResult() models.AnalysisResult {
	return models.AnalysisResult{
		HealthStatus:    models.HealthGood,
		Insights:        []string{fallbackInsight},
		Recommendations: []string{fallbackRecommendation},
		RiskFlags:       []string{},
		NextCheckInDays: defaultCheckInDays,
	}
}

func clampConfidence(c *float64) *float64 {
	if c == nil {
		return nil
	}
	v := *c
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return &v
}

func normalizeHealthStatus(status string) models.HealthStatus {
	if mapped, ok := healthStatusSynonyms[strings.ToLower(strings.TrimSpace(status))]; ok {
		return mapped
	}
	return models.HealthGood
}

// stringArray decodes a JSON value into a string slice, treating anything
// that is missing or not array-shaped as empty.
func stringArray(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return []string{}
	}
	return out
}

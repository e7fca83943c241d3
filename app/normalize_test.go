package app

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/tanmald/plant-sis/app/models"
)

func TestParseAnalysisResponseFullObject(t *testing.T) {
	raw := `{
		"species": "Monstera deliciosa",
		"confidence": 0.92,
		"healthStatus": "thriving",
		"insights": ["Lush new growth"],
		"recommendations": ["Keep current routine"],
		"riskFlags": [],
		"nextCheckInDays": 14
	}`
	result := ParseAnalysisResponse(raw)

	if result.Species != "Monstera deliciosa" {
		t.Errorf("species = %q", result.Species)
	}
	if result.Confidence == nil || *result.Confidence != 0.92 {
		t.Errorf("confidence = %v", result.Confidence)
	}
	if result.HealthStatus != models.HealthThriving {
		t.Errorf("healthStatus = %q", result.HealthStatus)
	}
	if result.NextCheckInDays != 14 {
		t.Errorf("nextCheckInDays = %d", result.NextCheckInDays)
	}
}

func TestParseAnalysisResponseExtractsEmbeddedJSON(t *testing.T) {
	raw := "Here's what I found about your plant!\n" +
		`{"species": "Ficus lyrata", "healthStatus": "good"}` +
		"\nLet me know if you need anything else."
	result := ParseAnalysisResponse(raw)
	if result.Species != "Ficus lyrata" {
		t.Fatalf("species = %q, want Ficus lyrata", result.Species)
	}
}

func TestParseAnalysisResponseClampsConfidence(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{1.4, 1.0},
		{-0.2, 0.0},
		{0.0, 0.0},
		{1.0, 1.0},
		{0.5, 0.5},
	}
	for _, tc := range cases {
		raw := fmt.Sprintf(`{"confidence": %g}`, tc.in)
		result := ParseAnalysisResponse(raw)
		if result.Confidence == nil {
			t.Errorf("confidence %g: got nil", tc.in)
			continue
		}
		if *result.Confidence != tc.want {
			t.Errorf("confidence %g: got %g, want %g", tc.in, *result.Confidence, tc.want)
		}
	}
}

func TestParseAnalysisResponseMissingConfidence(t *testing.T) {
	result := ParseAnalysisResponse(`{"species": "unknown"}`)
	if result.Confidence != nil {
		t.Fatalf("expected nil confidence, got %v", *result.Confidence)
	}
}

func TestNormalizeHealthStatusSynonyms(t *testing.T) {
	cases := []struct {
		in   string
		want models.HealthStatus
	}{
		{"thriving", models.HealthThriving},
		{"excellent", models.HealthThriving},
		{"Excellent", models.HealthThriving},
		{"good", models.HealthGood},
		{"healthy", models.HealthGood},
		{"at_risk", models.HealthAtRisk},
		{"warning", models.HealthAtRisk},
		{"concerning", models.HealthAtRisk},
		{"critical", models.HealthCritical},
		{"poor", models.HealthCritical},
		{"dying", models.HealthCritical},
		{" THRIVING ", models.HealthThriving},
		{"flourishing", models.HealthGood},
		{"", models.HealthGood},
	}
	for _, tc := range cases {
		if got := normalizeHealthStatus(tc.in); got != tc.want {
			t.Errorf("normalizeHealthStatus(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseAnalysisResponseDefaults(t *testing.T) {
	result := ParseAnalysisResponse(`{"species": "Pothos"}`)

	if result.Insights == nil || len(result.Insights) != 0 {
		t.Errorf("insights = %#v, want empty slice", result.Insights)
	}
	if result.Recommendations == nil || len(result.Recommendations) != 0 {
		t.Errorf("recommendations = %#v, want empty slice", result.Recommendations)
	}
	if result.RiskFlags == nil || len(result.RiskFlags) != 0 {
		t.Errorf("riskFlags = %#v, want empty slice", result.RiskFlags)
	}
	if result.NextCheckInDays != 7 {
		t.Errorf("nextCheckInDays = %d, want 7", result.NextCheckInDays)
	}
	if result.HealthStatus != models.HealthGood {
		t.Errorf("healthStatus = %q, want good", result.HealthStatus)
	}
}

func TestParseAnalysisResponseNonArrayFields(t *testing.T) {
	result := ParseAnalysisResponse(`{"insights": "just a string", "riskFlags": 42}`)
	if len(result.Insights) != 0 {
		t.Errorf("insights = %#v, want empty", result.Insights)
	}
	if len(result.RiskFlags) != 0 {
		t.Errorf("riskFlags = %#v, want empty", result.RiskFlags)
	}
}

func TestParseAnalysisResponseZeroCheckInDays(t *testing.T) {
	result := ParseAnalysisResponse(`{"nextCheckInDays": 0}`)
	if result.NextCheckInDays != 7 {
		t.Fatalf("nextCheckInDays = %d, want 7", result.NextCheckInDays)
	}
	result = ParseAnalysisResponse(`{"nextCheckInDays": -3}`)
	if result.NextCheckInDays != 7 {
		t.Fatalf("negative nextCheckInDays = %d, want 7", result.NextCheckInDays)
	}
}

func TestParseAnalysisResponseFallbackDeterministic(t *testing.T) {
	inputs := []string{
		"",
		"no json here at all",
		"{not valid json}",
		"}{",
	}
	want := models.AnalysisResult{
		HealthStatus:    models.HealthGood,
		Insights:        []string{"Unable to analyze photo. Please try again."},
		Recommendations: []string{"Ensure photo is clear and well-lit"},
		RiskFlags:       []string{},
		NextCheckInDays: 7,
	}
	for _, in := range inputs {
		got := ParseAnalysisResponse(in)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("fallback for %q = %+v, want %+v", in, got, want)
		}
	}
}

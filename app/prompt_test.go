package app

import (
	"strings"
	"testing"

	"github.com/tanmald/plant-sis/app/models"
)

func TestBuildPromptVariants(t *testing.T) {
	pd := &models.PlantData{CustomName: "Fernie", Species: "Boston Fern"}

	cases := []struct {
		name         string
		analysisType models.AnalysisType
		plantData    *models.PlantData
		mustContain  []string
	}{
		{
			name:         "identification",
			analysisType: models.AnalysisInitialIdentification,
			mustContain: []string{
				"Identify this plant's species",
				"Species Identification",
				"Next Check-In",
			},
		},
		{
			name:         "check-in with plant context",
			analysisType: models.AnalysisCheckInPhoto,
			plantData:    pd,
			mustContain: []string{
				"check-in photo for Fernie (Boston Fern)",
				"Change Detection",
				"If critical: 1-2 days",
			},
		},
		{
			name:         "health monitoring with known species",
			analysisType: models.AnalysisHealthMonitoring,
			plantData:    pd,
			mustContain: []string{
				"Health monitoring for Fernie (Boston Fern)",
				"Verify if this matches the known species: Boston Fern",
				"Quick Health Status",
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			prompt := BuildPrompt(tc.analysisType, tc.plantData)
			for _, want := range tc.mustContain {
				if !strings.Contains(prompt, want) {
					t.Errorf("prompt missing %q", want)
				}
			}
			if !strings.Contains(prompt, "PlantSis") {
				t.Error("prompt missing personality preamble")
			}
			if !strings.Contains(prompt, outputContract) {
				t.Error("prompt missing shared output contract")
			}
		})
	}
}

func TestBuildPromptNilPlantData(t *testing.T) {
	prompt := BuildPrompt(models.AnalysisCheckInPhoto, nil)
	if !strings.Contains(prompt, "check-in photo for this plant (unknown species)") {
		t.Fatalf("expected placeholder plant context, got:\n%s", prompt)
	}

	prompt = BuildPrompt(models.AnalysisHealthMonitoring, nil)
	if !strings.Contains(prompt, "Health monitoring for this plant.") {
		t.Fatal("expected placeholder monitoring context")
	}
	if !strings.Contains(prompt, "and identification") {
		t.Fatal("unknown species should ask for identification")
	}
	if !strings.Contains(prompt, "- Identify the plant species") {
		t.Fatal("unknown species should omit verification line")
	}
}

func TestBuildPromptIsPure(t *testing.T) {
	pd := &models.PlantData{CustomName: "Ivy"}
	first := BuildPrompt(models.AnalysisHealthMonitoring, pd)
	second := BuildPrompt(models.AnalysisHealthMonitoring, pd)
	if first != second {
		t.Fatal("same inputs produced different prompts")
	}
}

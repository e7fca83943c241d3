// Analyzes a single photo from disk against the live provider. Handy for
// iterating on prompt wording without going through the HTTP stack.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tanmald/plant-sis/app"
	"github.com/tanmald/plant-sis/app/models"
)

var mediaTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

func main() {
	analysisType := flag.String("type", string(models.AnalysisInitialIdentification), "analysis type")
	species := flag.String("species", "", "known species, if any")
	name := flag.String("name", "", "plant name, if any")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal("usage: analyze-local [flags] <photo path>")
	}
	path := flag.Arg(0)

	mediaType, ok := mediaTypes[strings.ToLower(filepath.Ext(path))]
	if !ok {
		log.Fatalf("unsupported image extension: %s", filepath.Ext(path))
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("failed to read photo: %v", err)
	}

	app.InitAnalyzer()

	var plantData *models.PlantData
	if *species != "" || *name != "" {
		plantData = &models.PlantData{Species: *species, CustomName: *name}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	start := time.Now()
	result, tokens, err := app.AnalyzeImage(
		ctx,
		base64.StdEncoding.EncodeToString(raw),
		mediaType,
		models.AnalysisType(*analysisType),
		plantData,
	)
	if err != nil {
		log.Fatalf("analysis failed: %v", err)
	}

	b, _ := json.MarshalIndent(result, "", "  ")
	log.Printf("Result:\n%s", b)
	log.Printf("Tokens used: %d, took %s", tokens, time.Since(start))
}

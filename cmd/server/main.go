package main

import (
	"log"

	"github.com/tanmald/plant-sis/app"
)

func main() {
	app.MustInitDB()
	app.InitStripe()
	app.InitAnalyzer()
	router, err := app.NewRouter()
	if err != nil {
		log.Fatalf("failed to initialize router: %v", err)
	}
	router.Run("0.0.0.0:8080")
}

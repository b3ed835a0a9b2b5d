package main

import (
	"log"

	"github.com/MrSnakeDoc/herald/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ herald failed to start: %v", err)
	}
}

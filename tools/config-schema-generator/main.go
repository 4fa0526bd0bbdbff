package main

import (
	"log"
	"os"

	"github.com/studyscout/scout/config"
)

func main() {
	data, err := config.GenerateSchema()
	if err != nil {
		log.Fatalf("Error generating schema: %v", err)
	}

	if err := os.WriteFile("schema/scout.embedded.schema.json", data, 0644); err != nil {
		log.Fatalf("Error writing schema file: %v", err)
	}

	log.Printf("Successfully generated config schema at schema/scout.embedded.schema.json")
}

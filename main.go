package main

import (
	"log"

	"github.com/joho/godotenv"

	"femstat/internal/backend"
	"femstat/internal/config"
	"femstat/internal/registry"
	"femstat/internal/session"
	"femstat/ui"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	reg, err := registry.Open(cfg.Storage.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open local registry: %v", err)
	}
	defer reg.Close()

	store := session.NewStore(nil)
	client := backend.NewClient(cfg.Backend)

	app, err := ui.NewApp(cfg, store, client, reg)
	if err != nil {
		log.Fatalf("Failed to initialize web app: %v", err)
	}

	log.Printf("Starting femstat on port %s (backend %s)", cfg.Server.Port, cfg.Backend.BaseURL)
	log.Fatal(app.Start())
}

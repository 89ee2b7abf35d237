// statsrv runs the development statistics backend: a single process
// serving the upload, analyze, report and auth API the web app talks to.
package main

import (
	"log"

	"github.com/joho/godotenv"

	"femstat/internal/config"
	"femstat/internal/stub"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	server := stub.NewServer(cfg.StatSrv)
	defer server.Close()

	log.Printf("Starting statsrv on port %s (data dir %s)", cfg.StatSrv.Port, cfg.StatSrv.DataDir)
	log.Fatal(server.Start())
}

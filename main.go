package main

import (
	"net/http"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"manim-server/internal"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found or could not be loaded")
	}

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	cfg := internal.LoadConfig()

	// The animation library is optional: generation and rendering work
	// without Postgres, only save/feed endpoints need it.
	store, err := internal.OpenStore(cfg)
	if err != nil {
		log.Warnf("Animation library disabled, could not connect to Postgres: %v", err)
		store = nil
	} else {
		log.Println("Connected to PostgreSQL database successfully")
	}

	llm := internal.NewOpenAIClient(cfg.OpenAIAPIKey)
	renderer := internal.NewRenderer(cfg.ManimBin, cfg.OutputDir)

	server := internal.NewServer(cfg, llm, renderer, store)

	log.Printf("Manim Server starting on port %s...", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, server.Router()); err != nil {
		log.Fatalf("could not start server: %v", err)
	}
}

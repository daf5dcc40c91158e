package main

import (
	"fmt"
	"os"

	"github.com/arnavshah/schedule-board-api/pkg/auth"
	"github.com/arnavshah/schedule-board-api/pkg/config"
)

func main() {
	cfg := config.Load()

	if len(os.Args) < 2 {
		fmt.Println("Usage: keygen <clientID>")
		os.Exit(1)
	}

	if cfg.APIMasterSecret == "" {
		fmt.Println("Error: API_MASTER_SECRET not found in environment or .env")
		os.Exit(1)
	}

	clientID := os.Args[1]
	key := auth.New(cfg.JWTSecret, cfg.APIMasterSecret).GenerateHMACKey(clientID)
	fmt.Printf("Generated Key for %s:\n%s\n", clientID, key)
}

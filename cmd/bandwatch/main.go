package main

import (
	"github.com/joho/godotenv"

	"support-band-alerts/internal/cli"
)

func main() {
	// A local .env is optional; real deployments inject environment
	// variables directly.
	_ = godotenv.Load()

	cli.Execute()
}

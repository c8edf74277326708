package main

import (
	"github.com/joho/godotenv"
	"github.com/VadymMak/multi-ai-chat-sub002/internal/cli"
)

func main() {
	// API keys are commonly kept in a local .env during development.
	_ = godotenv.Load()

	cli.Execute()
}

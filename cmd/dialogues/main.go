package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"dialogues/internal/client/cli"
	"dialogues/internal/platform/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	baseURL := os.Getenv("DIALOGUES_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		// Keep the REPL quiet unless asked otherwise.
		logLevel = "error"
	}
	logger := logging.New(logLevel, "development")

	app := cli.NewApp(baseURL, os.Stdin, os.Stdout, logger)
	if err := app.Run(ctx); err != nil {
		logger.Error("client exited with error", "error", err)
		os.Exit(1)
	}
}

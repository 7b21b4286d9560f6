package main

import (
	"context"
	"time"

	"log/slog"

	"dialogues/internal/accounts"
	"dialogues/internal/dialogues"
	"dialogues/internal/profiles"
)

// seedDemoData loads a demo account with a profile and a couple of published
// dialogues so the in-memory mode is explorable out of the box.
func seedDemoData(ctx context.Context, accountService *accounts.Service, profileRepo profiles.Repository, dialogueService *dialogues.Service, logger *slog.Logger) {
	const demoEmail = "demo@dialogues.local"

	user, err := accountService.Register(ctx, demoEmail, "demo-password")
	if err != nil {
		logger.Warn("demo seed: account", "error", err)
		return
	}

	profile, err := profileRepo.Insert(ctx, profiles.Profile{
		UserID:    user.ID,
		Username:  "demo",
		Bio:       "Seeded demo account.",
		CreatedAt: time.Now(),
	})
	if err != nil {
		logger.Warn("demo seed: profile", "error", err)
		return
	}

	seedDialogues := []struct {
		title   string
		content string
	}{
		{"Welcome to Dialogues", "This instance is running with in-memory storage. Everything here resets on restart."},
		{"Writing your first dialogue", "Sign up, pick a username, and publish. The demo account shows what a populated feed looks like."},
	}

	for _, d := range seedDialogues {
		if _, err := dialogueService.Create(ctx, profile.ID, d.title, d.content); err != nil {
			logger.Warn("demo seed: dialogue", "title", d.title, "error", err)
		}
	}

	logger.Info("demo data seeded", "email", demoEmail, "username", profile.Username)
}

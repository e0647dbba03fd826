package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/oksasatya/taskhive/config"
	"github.com/oksasatya/taskhive/internal/application"
	"github.com/oksasatya/taskhive/internal/container"
	"github.com/oksasatya/taskhive/internal/domain/apperror"
	"github.com/oksasatya/taskhive/pkg/helpers"
)

// seeds a demo account with a few tabs and tasks; safe to re-run
func main() {
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)
	ctx := context.Background()

	store, err := container.OpenStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}

	profiles := application.NewProfileService(store.Profiles(), nil, logger)
	tasks := application.NewTaskService(store.Tasks(), nil, logger, nil)
	creds := application.NewCredentialService(store.Credentials(), profiles, nil, logger, cfg.BcryptCost)
	tabs := application.NewTabOrchestrator(profiles, tasks, nil, logger)

	username, password := "demoUser", "password123"
	id, err := creds.Register(ctx, username, password)
	if errors.Is(err, apperror.ErrAlreadyExists) {
		id, err = creds.Authenticate(ctx, username, password)
	}
	if err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded user: id=%s username=%s password=%s\n", id.UserID, username, password)

	seed := map[string][]string{
		"main":      {"Buy milk", "Call the bank"},
		"Work":      {"Write the quarterly report", "Review open pull requests"},
		"Groceries": {"Eggs", "Coffee beans"},
	}
	for name, texts := range seed {
		tabID := "main"
		if name != "main" {
			tab, err := tabs.CreateTab(ctx, id.UserID, name)
			if err != nil {
				log.Fatalf("failed to create tab %q: %v", name, err)
			}
			tabID = tab.TabID
		}
		existing, err := tasks.ListByTab(ctx, id.UserID, tabID)
		if err != nil {
			log.Fatalf("failed to list tab %q: %v", tabID, err)
		}
		if len(existing) > 0 {
			continue
		}
		for _, text := range texts {
			if _, err := tasks.Add(ctx, id.UserID, tabID, text, ""); err != nil {
				log.Fatalf("failed to add task: %v", err)
			}
		}
		fmt.Printf("tab %s: %d tasks\n", tabID, len(texts))
	}
}

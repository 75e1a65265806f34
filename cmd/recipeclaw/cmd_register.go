// RecipeClaw - Recipe extraction bot for Discord
// License: MIT
//
// Copyright (c) 2026 RecipeClaw contributors

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/zhaopengme/recipeclaw/pkg/discord"
	"github.com/zhaopengme/recipeclaw/pkg/gateway"
)

func registerCmd() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateRegister(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	registrar, err := discord.NewRegistrar(ctx, discord.RegisterConfig{
		ApplicationID: cfg.Discord.ApplicationID,
		BotToken:      cfg.Discord.BotToken,
		ClientSecret:  cfg.Discord.ClientSecret,
		APIBase:       cfg.Discord.APIBase,
	})
	if err != nil {
		return err
	}

	// handlers are not needed to describe the catalog
	registered, err := registrar.Register(gateway.Catalog(nil).Definitions())
	if err != nil {
		return err
	}
	for _, cmd := range registered {
		fmt.Printf("✓ /%s registered (id %s)\n", cmd.Name, cmd.ID)
	}
	return nil
}

package discord

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/zhaopengme/recipeclaw/pkg/logger"
)

const commandsUpdateScope = "applications.commands.update"

type RegisterConfig struct {
	ApplicationID string
	BotToken      string
	ClientSecret  string
	APIBase       string
	HTTPClient    *http.Client
}

// Registrar overwrites the application's global slash-command catalog.
type Registrar struct {
	session *discordgo.Session
	appID   string
}

// NewRegistrar authenticates with a client-credentials bearer token when a
// client secret is configured, and with the bot token otherwise.
func NewRegistrar(ctx context.Context, cfg RegisterConfig) (*Registrar, error) {
	if cfg.ApplicationID == "" {
		return nil, fmt.Errorf("application id is required")
	}

	var auth string
	switch {
	case cfg.ClientSecret != "":
		tok, err := clientCredentialsToken(ctx, cfg)
		if err != nil {
			return nil, err
		}
		auth = "Bearer " + tok.AccessToken
	case cfg.BotToken != "":
		auth = "Bot " + cfg.BotToken
	default:
		return nil, fmt.Errorf("either a bot token or a client secret is required")
	}

	session, err := discordgo.New(auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	if cfg.HTTPClient != nil {
		session.Client = cfg.HTTPClient
	}

	return &Registrar{session: session, appID: cfg.ApplicationID}, nil
}

func clientCredentialsToken(ctx context.Context, cfg RegisterConfig) (*oauth2.Token, error) {
	base := strings.TrimRight(cfg.APIBase, "/")
	if base == "" {
		base = DefaultAPIBase
	}
	cc := clientcredentials.Config{
		ClientID:     cfg.ApplicationID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     base + "/oauth2/token",
		Scopes:       []string{commandsUpdateScope},
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	if cfg.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, cfg.HTTPClient)
	}
	tok, err := cc.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("client credentials token: %w", err)
	}
	return tok, nil
}

func (r *Registrar) Register(cmds []*discordgo.ApplicationCommand) ([]*discordgo.ApplicationCommand, error) {
	created, err := r.session.ApplicationCommandBulkOverwrite(r.appID, "", cmds)
	if err != nil {
		return nil, fmt.Errorf("overwrite global commands: %w", err)
	}
	for _, cmd := range created {
		logger.InfoCF("discord", "Registered command", map[string]any{
			"name": cmd.Name,
			"id":   cmd.ID,
		})
	}
	return created, nil
}

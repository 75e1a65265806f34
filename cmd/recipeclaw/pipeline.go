// RecipeClaw - Recipe extraction bot for Discord
// License: MIT
//
// Copyright (c) 2026 RecipeClaw contributors

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/zhaopengme/recipeclaw/pkg/bus"
	"github.com/zhaopengme/recipeclaw/pkg/config"
	"github.com/zhaopengme/recipeclaw/pkg/discord"
	"github.com/zhaopengme/recipeclaw/pkg/extract"
	"github.com/zhaopengme/recipeclaw/pkg/followup"
	"github.com/zhaopengme/recipeclaw/pkg/logger"
	"github.com/zhaopengme/recipeclaw/pkg/metrics"
	"github.com/zhaopengme/recipeclaw/pkg/providers"
	"github.com/zhaopengme/recipeclaw/pkg/video"
)

const memoryQueueBuffer = 64

func newEngine(ctx context.Context, cfg *config.Config) (*extract.RetryEngine, error) {
	parser, err := providers.CreateParser(cfg.Parser.ProvidersConfig())
	if err != nil {
		return nil, fmt.Errorf("creating recipe parser: %w", err)
	}
	source, err := video.NewYouTubeClient(ctx, video.YouTubeConfig{
		APIKey:   cfg.YouTube.APIKey,
		Endpoint: cfg.YouTube.APIBase,
	})
	if err != nil {
		return nil, err
	}

	logger.InfoCF("extract", "Extraction pipeline ready", map[string]any{
		"parser":       parser.Name(),
		"model":        parser.Model(),
		"max_attempts": cfg.Retry.MaxAttempts,
	})

	return extract.NewRetryEngine(
		extract.NewVideoExtractor(source, parser),
		cfg.Retry.EngineConfig(),
		observeExtraction,
	), nil
}

func observeExtraction(ev extract.Event) {
	metrics.RecordExtractionState(ev.State.String())
	fields := map[string]any{"state": ev.State.String(), "attempt": ev.Attempt}
	if ev.Err != nil {
		fields["error"] = ev.Err.Error()
	}
	logger.DebugCF("extract", "Extraction state", fields)
}

func newFollowupService(ctx context.Context, cfg *config.Config) (*followup.Service, error) {
	engine, err := newEngine(ctx, cfg)
	if err != nil {
		return nil, err
	}
	client := discord.NewClient(discord.Config{
		ApplicationID: cfg.Discord.ApplicationID,
		APIBase:       cfg.Discord.APIBase,
	})
	return followup.NewService(engine, client, cfg.Discord.ApplicationID), nil
}

func newQueue(cfg *config.Config) (bus.Queue, error) {
	switch cfg.Queue.Driver {
	case config.QueueDriverMemory:
		return bus.NewMessageBus(memoryQueueBuffer), nil
	case config.QueueDriverRedis:
		stream, err := bus.NewRedisStreamWithURL(cfg.Queue.RedisURL, bus.RedisConfig{
			Stream:       cfg.Queue.Stream,
			Group:        cfg.Queue.Group,
			ConsumerName: consumerName(),
		})
		if err != nil {
			return nil, err
		}
		return stream, nil
	default:
		return nil, fmt.Errorf("unknown queue driver %q", cfg.Queue.Driver)
	}
}

// consumerName is unique per process so pending entries can be traced to a worker.
func consumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "recipeclaw"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}

// Runner is the deferred phase as the queue consumer sees it.
type Runner interface {
	Handle(ctx context.Context, c bus.Continuation) followup.Report
}

// followupHandler bounds each continuation by deadline, which must stay
// inside the interaction token lifetime.
func followupHandler(r Runner, deadline time.Duration) bus.Handler {
	return func(ctx context.Context, env bus.Envelope) error {
		ctx, cancel := context.WithTimeout(ctx, deadline)
		defer cancel()

		rep := r.Handle(ctx, env.Continuation)
		if rep.Status >= 400 {
			return fmt.Errorf("continuation %s finished with %d: %s", env.ID, rep.Status, rep.Message)
		}
		return nil
	}
}

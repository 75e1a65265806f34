// RecipeClaw - Recipe extraction bot for Discord
// License: MIT
//
// Copyright (c) 2026 RecipeClaw contributors

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/zhaopengme/recipeclaw/pkg/config"
	"github.com/zhaopengme/recipeclaw/pkg/logger"
)

func workerCmd() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateWorker(); err != nil {
		return err
	}
	if cfg.Queue.Driver == config.QueueDriverMemory {
		logger.WarnC("worker", "Memory queue selected; the worker only sees continuations from its own process")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newFollowupService(ctx, cfg)
	if err != nil {
		return err
	}
	queue, err := newQueue(cfg)
	if err != nil {
		return err
	}
	defer queue.Close()

	logger.InfoCF("worker", "Worker started", map[string]any{
		"driver":   cfg.Queue.Driver,
		"deadline": cfg.Worker.Deadline.String(),
	})
	return queue.Consume(ctx, followupHandler(svc, cfg.Worker.Deadline))
}

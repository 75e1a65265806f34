// RecipeClaw - Recipe extraction bot for Discord
// License: MIT
//
// Copyright (c) 2026 RecipeClaw contributors

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/zhaopengme/recipeclaw/pkg/config"
	"github.com/zhaopengme/recipeclaw/pkg/gateway"
	"github.com/zhaopengme/recipeclaw/pkg/interaction"
	"github.com/zhaopengme/recipeclaw/pkg/logger"
	"github.com/zhaopengme/recipeclaw/pkg/server"
	"github.com/zhaopengme/recipeclaw/pkg/video"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateServe(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	verifier, err := interaction.NewVerifier(cfg.Discord.PublicKey)
	if err != nil {
		return err
	}
	queue, err := newQueue(cfg)
	if err != nil {
		return err
	}
	defer queue.Close()

	// the consumer outlives the signal so requests still being served can
	// publish, and whatever they publish is handled
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()

	var wg sync.WaitGroup
	if cfg.Queue.Driver == config.QueueDriverMemory {
		svc, err := newFollowupService(ctx, cfg)
		if err != nil {
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := queue.Consume(workerCtx, followupHandler(svc, cfg.Worker.Deadline)); err != nil {
				logger.ErrorCF("worker", "In-process worker stopped", map[string]any{"error": err.Error()})
			}
		}()
		logger.InfoC("worker", "Running in-process worker")
	}

	gw := gateway.NewCommandGateway(cfg.Discord.ApplicationID,
		gateway.Catalog(gateway.NewTrigger(queue, video.IsSupportedURL)))
	srv := server.New(cfg.Server.Addr, verifier, gw)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err = <-errCh:
	case <-ctx.Done():
		logger.InfoC("server", "Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		err = errors.Join(srv.Shutdown(shutdownCtx), <-errCh)
		cancel()
	}

	// stops publishes, then handles what is still buffered
	stopWorker()
	wg.Wait()
	return err
}

package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zhaopengme/recipeclaw/pkg/logger"
)

const payloadField = "payload"

type RedisConfig struct {
	Stream       string
	Group        string
	ConsumerName string
	BatchSize    int64
	BlockTimeout time.Duration
}

func (c RedisConfig) withDefaults() RedisConfig {
	if c.Stream == "" {
		c.Stream = "recipeclaw:followups"
	}
	if c.Group == "" {
		c.Group = "recipeclaw-workers"
	}
	if c.ConsumerName == "" {
		c.ConsumerName = "worker-1"
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 10
	}
	if c.BlockTimeout <= 0 {
		c.BlockTimeout = 5 * time.Second
	}
	return c
}

// RedisStream carries continuations over a Redis Stream with a consumer group,
// so any worker process can pick up the deferred phase.
type RedisStream struct {
	client *redis.Client
	cfg    RedisConfig
}

func NewRedisStream(client *redis.Client, cfg RedisConfig) *RedisStream {
	return &RedisStream{client: client, cfg: cfg.withDefaults()}
}

func NewRedisStreamWithURL(url string, cfg RedisConfig) (*RedisStream, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisStream(redis.NewClient(opts), cfg), nil
}

func (s *RedisStream) Publish(ctx context.Context, c Continuation) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}

	payload, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode continuation: %w", err)
	}

	id, err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.cfg.Stream,
		Values: map[string]any{payloadField: string(payload)},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd %s: %w", s.cfg.Stream, err)
	}
	return id, nil
}

// Consume reads the stream as a member of the consumer group. Every message is
// acknowledged once its handler returns: an interaction token is single-use,
// so a redelivered continuation would post duplicate follow-ups.
func (s *RedisStream) Consume(ctx context.Context, h Handler) error {
	if err := s.ensureGroup(ctx); err != nil {
		return err
	}

	logger.InfoCF("bus", "Consuming continuations", map[string]any{
		"stream":   s.cfg.Stream,
		"group":    s.cfg.Group,
		"consumer": s.cfg.ConsumerName,
	})

	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := s.readAndHandle(ctx, h); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.ErrorCF("bus", "Stream read failed", map[string]any{"error": err.Error()})
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func (s *RedisStream) ensureGroup(ctx context.Context) error {
	err := s.client.XGroupCreateMkStream(ctx, s.cfg.Stream, s.cfg.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group: %w", err)
	}
	return nil
}

func (s *RedisStream) readAndHandle(ctx context.Context, h Handler) error {
	streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.cfg.Group,
		Consumer: s.cfg.ConsumerName,
		Streams:  []string{s.cfg.Stream, ">"},
		Count:    s.cfg.BatchSize,
		Block:    s.cfg.BlockTimeout,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}

	// a batch is handled concurrently; the next read waits for all of it
	var wg sync.WaitGroup
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.handleMessage(ctx, msg, h)
			}()
		}
	}
	wg.Wait()
	return nil
}

func (s *RedisStream) handleMessage(ctx context.Context, msg redis.XMessage, h Handler) {
	c, err := decodeMessage(msg)
	if err != nil {
		logger.ErrorCF("bus", "Dropping malformed continuation", map[string]any{
			"message_id": msg.ID,
			"error":      err.Error(),
		})
	} else if err := runHandler(ctx, h, Envelope{ID: msg.ID, Continuation: c}); err != nil {
		logger.WarnCF("bus", "Continuation handler failed", map[string]any{
			"message_id": msg.ID,
			"token":      RedactToken(c.Token),
			"error":      err.Error(),
		})
	}

	// ack on a fresh context so shutdown does not leave the message pending
	ackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.client.XAck(ackCtx, s.cfg.Stream, s.cfg.Group, msg.ID).Err(); err != nil {
		logger.ErrorCF("bus", "Failed to ack continuation", map[string]any{
			"message_id": msg.ID,
			"error":      err.Error(),
		})
	}
}

func decodeMessage(msg redis.XMessage) (Continuation, error) {
	raw, ok := msg.Values[payloadField].(string)
	if !ok {
		return Continuation{}, fmt.Errorf("%w: no %s field", ErrInvalidContinuation, payloadField)
	}
	var c Continuation
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return Continuation{}, fmt.Errorf("%w: %v", ErrInvalidContinuation, err)
	}
	if err := c.Validate(); err != nil {
		return Continuation{}, err
	}
	return c, nil
}

func (s *RedisStream) Close() error {
	return s.client.Close()
}

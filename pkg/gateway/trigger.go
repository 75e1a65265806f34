package gateway

import (
	"context"
	"net/http"

	"github.com/zhaopengme/recipeclaw/pkg/bus"
	"github.com/zhaopengme/recipeclaw/pkg/discord"
	"github.com/zhaopengme/recipeclaw/pkg/logger"
	"github.com/zhaopengme/recipeclaw/pkg/metrics"
)

const MsgDispatchFailed = "Failed to start recipe extraction."

// Trigger accepts an extraction request and hands it to the deferred phase.
type Trigger struct {
	publisher bus.Publisher
	supported func(url string) bool
}

func NewTrigger(publisher bus.Publisher, supported func(url string) bool) *Trigger {
	return &Trigger{publisher: publisher, supported: supported}
}

// Trigger publishes exactly one continuation for an accepted url and replies
// with the url itself. A failed publish is not retried.
func (t *Trigger) Trigger(ctx context.Context, url, token string) Outcome {
	if !t.supported(url) {
		logger.WarnCF("gateway", "Unsupported URL", map[string]any{"url": url})
		return validation("The provided text is not a supported URL: " + url)
	}

	c := bus.Continuation{URL: url, Token: token}
	id, err := t.publisher.Publish(ctx, c)
	if err != nil {
		metrics.RecordPublish("error")
		logger.ErrorCF("gateway", "Failed to dispatch extraction", map[string]any{
			"url":   url,
			"token": bus.RedactToken(token),
			"error": err.Error(),
		})
		return Outcome{
			Status:   http.StatusInternalServerError,
			Kind:     KindInternal,
			Message:  MsgDispatchFailed,
			Response: discord.MessageResponse(MsgDispatchFailed, true),
		}
	}

	metrics.RecordPublish("ok")
	logger.InfoCF("gateway", "Extraction dispatched", map[string]any{
		"url":        url,
		"message_id": id,
		"token":      bus.RedactToken(token),
	})
	return Outcome{
		Status:   http.StatusOK,
		Kind:     KindAccepted,
		Message:  url,
		Response: discord.MessageResponse(url, false),
	}
}

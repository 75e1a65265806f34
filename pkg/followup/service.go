package followup

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/zhaopengme/recipeclaw/pkg/bus"
	"github.com/zhaopengme/recipeclaw/pkg/discord"
	"github.com/zhaopengme/recipeclaw/pkg/extract"
	"github.com/zhaopengme/recipeclaw/pkg/logger"
	"github.com/zhaopengme/recipeclaw/pkg/metrics"
)

const (
	MsgLoading           = "Extracting recipe..."
	MsgExhausted         = "Extraction failed. Please try again later."
	MsgNoVideo           = "Failed to get video information. The URL may not be a valid video URL."
	MsgNoRecipes         = "No recipes found."
	MsgCancelled         = "Extraction was cancelled."
	MsgUnexpected        = "Something went wrong while extracting the recipe."
	MsgDeliveryFailed    = "One or more recipes failed to send. Please try again later."
	defaultNotifyTimeout = 5 * time.Second
)

// Engine runs extraction with retries.
type Engine interface {
	Run(ctx context.Context, url string) (extract.Result, error)
}

// Report summarizes a deferred run. Status is HTTP-like.
type Report struct {
	Status    int
	Message   string
	Delivered int
	Failed    int
}

type Service struct {
	engine        Engine
	sender        discord.WebhookSender
	deliverer     *Deliverer
	appID         string
	notifyTimeout time.Duration
}

func NewService(engine Engine, sender discord.WebhookSender, appID string) *Service {
	return &Service{
		engine:        engine,
		sender:        sender,
		deliverer:     NewDeliverer(sender, appID),
		appID:         appID,
		notifyTimeout: defaultNotifyTimeout,
	}
}

type placeholder struct {
	messageID string
	status    int
	err       error
}

// Handle runs the deferred phase for one continuation. Every path that gets
// past validation ends with a message to the user.
func (s *Service) Handle(ctx context.Context, c bus.Continuation) (rep Report) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorCF("followup", "Recovered from panic", map[string]any{
				"url":   c.URL,
				"token": bus.RedactToken(c.Token),
				"panic": fmt.Sprint(r),
				"stack": string(debug.Stack()),
			})
			notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
			defer cancel()
			s.sendError(notifyCtx, c.Token, MsgUnexpected)
			rep = s.finish("panic", Report{Status: http.StatusInternalServerError, Message: MsgUnexpected})
		}
	}()

	if err := c.Validate(); err != nil {
		logger.ErrorCF("followup", "Rejected continuation", map[string]any{"error": err.Error()})
		metrics.RecordFollowup("invalid")
		return Report{Status: http.StatusBadRequest, Message: err.Error()}
	}

	fields := map[string]any{"url": c.URL, "token": bus.RedactToken(c.Token)}
	logger.InfoCF("followup", "Extracting recipe", fields)

	loading := make(chan placeholder, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				loading <- placeholder{err: fmt.Errorf("panic while sending loading message: %v", r)}
			}
		}()
		loading <- s.sendPlaceholder(ctx, c.Token)
	}()

	start := time.Now()
	res, err := s.engine.Run(ctx, c.URL)
	metrics.RecordExtractionDuration(time.Since(start).Seconds())

	ph := <-loading
	if ph.err != nil {
		logger.WarnCF("followup", "Loading message failed", map[string]any{"error": ph.err.Error()})
	} else {
		logger.InfoCF("followup", "Loading message sent", map[string]any{"status": ph.status})
	}

	switch {
	case errors.Is(err, extract.ErrAborted):
		// the caller's context is gone; notify on a detached one
		notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
		defer cancel()
		s.sendError(notifyCtx, c.Token, MsgCancelled)
		return s.finish("aborted", Report{Status: http.StatusInternalServerError, Message: MsgCancelled})
	case errors.Is(err, extract.ErrExhausted):
		s.sendError(ctx, c.Token, MsgExhausted)
		return s.finish("exhausted", Report{Status: http.StatusServiceUnavailable, Message: MsgExhausted})
	case err != nil:
		logger.ErrorCF("followup", "Extraction failed", map[string]any{"error": err.Error()})
		s.sendError(ctx, c.Token, MsgUnexpected)
		return s.finish("error", Report{Status: http.StatusInternalServerError, Message: MsgUnexpected})
	case res.Metadata == nil:
		s.sendError(ctx, c.Token, MsgNoVideo)
		return s.finish("no_video", Report{Status: http.StatusUnprocessableEntity, Message: MsgNoVideo})
	case len(res.Recipes) == 0:
		s.sendError(ctx, c.Token, MsgNoRecipes)
		return s.finish("no_recipes", Report{Status: http.StatusNotFound, Message: MsgNoRecipes})
	}

	fragments := Compile(*res.Metadata, res.Recipes)
	logger.InfoCF("followup", "Delivering recipes", map[string]any{
		"count":    len(fragments),
		"attempts": res.Attempts,
	})

	_, err = s.deliverer.DeliverAll(ctx, c.Token, fragments)
	var derr *DeliveryError
	if errors.As(err, &derr) {
		s.sendError(ctx, c.Token, MsgDeliveryFailed)
		return s.finish("delivery_failed", Report{
			Status:    http.StatusInternalServerError,
			Message:   fmt.Sprintf("%d of %d recipes failed to send. Please try again later.", derr.Failed, derr.Total),
			Delivered: derr.Total - derr.Failed,
			Failed:    derr.Failed,
		})
	}

	if ph.messageID != "" {
		s.editPlaceholder(ctx, c.Token, ph.messageID, len(fragments))
	}

	return s.finish("sent", Report{
		Status:    http.StatusOK,
		Message:   fmt.Sprintf("Followup responses sent: %d.", len(fragments)),
		Delivered: len(fragments),
	})
}

func (s *Service) finish(outcome string, r Report) Report {
	metrics.RecordFollowup(outcome)
	logger.InfoCF("followup", "Followup finished", map[string]any{
		"outcome":   outcome,
		"status":    r.Status,
		"message":   r.Message,
		"delivered": r.Delivered,
		"failed":    r.Failed,
	})
	return r
}

func (s *Service) sendPlaceholder(ctx context.Context, token string) placeholder {
	resp, err := discord.CreateFollowup(ctx, s.sender, s.appID, token, discord.EphemeralFollowup(MsgLoading))
	if err != nil {
		return placeholder{err: err}
	}
	return placeholder{messageID: discord.MessageID(resp), status: resp.StatusCode}
}

func (s *Service) editPlaceholder(ctx context.Context, token, messageID string, n int) {
	content := fmt.Sprintf("Extracted %d recipe(s).", n)
	resp, err := discord.EditFollowup(ctx, s.sender, s.appID, token, messageID, &discordgo.WebhookEdit{Content: &content})
	if err == nil {
		err = resp.Err(http.MethodPatch, "followup message "+messageID)
	}
	if err != nil {
		logger.WarnCF("followup", "Failed to update loading message", map[string]any{"error": err.Error()})
	}
}

func (s *Service) sendError(ctx context.Context, token, message string) {
	resp, err := discord.CreateFollowup(ctx, s.sender, s.appID, token, discord.EphemeralFollowup(message))
	if err == nil {
		err = resp.Err(http.MethodPost, "followup")
	}
	if err != nil {
		logger.ErrorCF("followup", "Failed to send error followup", map[string]any{
			"message": message,
			"error":   err.Error(),
		})
	}
}

package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/zhaopengme/recipeclaw/pkg/logger"
)

const (
	DefaultAPIBase = "https://discord.com/api/v10"
	sendTimeout    = 10 * time.Second
	maxBodyLog     = 2048
)

// WebhookResponse is the raw outcome of a webhook call. Non-2xx statuses are
// not errors at this layer; callers decide what a failure means.
type WebhookResponse struct {
	StatusCode int
	Body       []byte
}

func (r *WebhookResponse) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Err returns an *APIError for a non-2xx response and nil otherwise.
func (r *WebhookResponse) Err(method, path string) error {
	if r.OK() {
		return nil
	}
	return &APIError{Method: method, Path: path, StatusCode: r.StatusCode, Body: truncate(string(r.Body), maxBodyLog)}
}

type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("discord %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// WebhookSender performs one JSON request against the Discord API.
type WebhookSender interface {
	Send(ctx context.Context, method, path string, body any) (*WebhookResponse, error)
}

type Config struct {
	ApplicationID string
	APIBase       string
	HTTPClient    *http.Client
}

// Client talks to the interaction webhook endpoints. Interaction tokens
// authorize these calls, so no bot token is attached.
type Client struct {
	appID      string
	apiBase    string
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.APIBase), "/")
	if base == "" {
		base = DefaultAPIBase
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: sendTimeout}
	}
	return &Client{appID: cfg.ApplicationID, apiBase: base, httpClient: hc}
}

func (c *Client) ApplicationID() string { return c.appID }

func (c *Client) Send(ctx context.Context, method, path string, body any) (*WebhookResponse, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiBase+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", "RecipeClaw (https://github.com/zhaopengme/recipeclaw, 1.0)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s response: %w", method, path, err)
	}

	logger.DebugCF("discord", "Webhook call finished", map[string]any{
		"method": method,
		"status": resp.StatusCode,
	})
	return &WebhookResponse{StatusCode: resp.StatusCode, Body: respBody}, nil
}

// FollowupPath is the webhook path for follow-ups on an interaction token.
func FollowupPath(appID, token string) string {
	return "/webhooks/" + appID + "/" + token
}

// CreateFollowup posts a follow-up message on an interaction token.
func CreateFollowup(ctx context.Context, s WebhookSender, appID, token string, params *discordgo.WebhookParams) (*WebhookResponse, error) {
	return s.Send(ctx, http.MethodPost, FollowupPath(appID, token), params)
}

// EditFollowup patches a follow-up message created earlier on the same token.
func EditFollowup(ctx context.Context, s WebhookSender, appID, token, messageID string, edit *discordgo.WebhookEdit) (*WebhookResponse, error) {
	return s.Send(ctx, http.MethodPatch, FollowupPath(appID, token)+"/messages/"+messageID, edit)
}

// MessageID decodes the id of the message a follow-up call returned.
func MessageID(resp *WebhookResponse) string {
	if !resp.OK() || len(resp.Body) == 0 {
		return ""
	}
	var msg discordgo.Message
	if err := json.Unmarshal(resp.Body, &msg); err != nil {
		return ""
	}
	return msg.ID
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

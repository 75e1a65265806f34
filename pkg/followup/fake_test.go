package followup

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/zhaopengme/recipeclaw/pkg/discord"
)

type sentCall struct {
	Method string
	Path   string
	Body   any
}

func (c sentCall) content() string {
	switch b := c.Body.(type) {
	case *discordgo.WebhookParams:
		return b.Content
	case *discordgo.WebhookEdit:
		if b.Content != nil {
			return *b.Content
		}
	}
	return ""
}

func (c sentCall) embedTitle() string {
	if p, ok := c.Body.(*discordgo.WebhookParams); ok && len(p.Embeds) > 0 {
		return p.Embeds[0].Title
	}
	return ""
}

type fakeSender struct {
	mu      sync.Mutex
	calls   []sentCall
	respond func(call sentCall) (*discord.WebhookResponse, error)
}

func (f *fakeSender) Send(_ context.Context, method, path string, body any) (*discord.WebhookResponse, error) {
	call := sentCall{Method: method, Path: path, Body: body}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	if f.respond != nil {
		return f.respond(call)
	}
	raw, _ := json.Marshal(map[string]string{"id": "msg-1"})
	return &discord.WebhookResponse{StatusCode: 200, Body: raw}, nil
}

func (f *fakeSender) snapshot() []sentCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentCall(nil), f.calls...)
}

func (f *fakeSender) contents() []string {
	var out []string
	for _, c := range f.snapshot() {
		if s := c.content(); s != "" {
			out = append(out, s)
		}
	}
	return out
}

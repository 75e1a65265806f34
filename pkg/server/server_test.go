package server

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhaopengme/recipeclaw/pkg/bus"
	"github.com/zhaopengme/recipeclaw/pkg/gateway"
	"github.com/zhaopengme/recipeclaw/pkg/interaction"
	"github.com/zhaopengme/recipeclaw/pkg/video"
)

type countingPublisher struct {
	mu    sync.Mutex
	calls []bus.Continuation
}

func (p *countingPublisher) Publish(_ context.Context, c bus.Continuation) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, c)
	return "1-0", nil
}

type testEnv struct {
	srv  *Server
	priv ed25519.PrivateKey
	pub  *countingPublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	pubKey, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	verifier, err := interaction.NewVerifier(hex.EncodeToString(pubKey))
	require.NoError(t, err)

	pub := &countingPublisher{}
	gw := gateway.NewCommandGateway("app1", gateway.Catalog(gateway.NewTrigger(pub, video.IsSupportedURL)))
	return &testEnv{srv: New(":0", verifier, gw), priv: priv, pub: pub}
}

func (e *testEnv) signedRequest(body string) *http.Request {
	ts := "1700000000"
	sig := ed25519.Sign(e.priv, []byte(ts+body))
	req := httptest.NewRequest(http.MethodPost, InteractionsPath, strings.NewReader(body))
	req.Header.Set(interaction.HeaderSignature, hex.EncodeToString(sig))
	req.Header.Set(interaction.HeaderTimestamp, ts)
	return req
}

func TestInteractionPing(t *testing.T) {
	env := newTestEnv(t)
	rec := httptest.NewRecorder()
	env.srv.Router.ServeHTTP(rec, env.signedRequest(`{"id":"1","application_id":"app1","type":1,"token":"t"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var resp discordgo.InteractionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, discordgo.InteractionResponsePong, resp.Type)
}

func TestInteractionRejectsBadSignature(t *testing.T) {
	env := newTestEnv(t)
	req := env.signedRequest(`{"id":"1","application_id":"app1","type":1,"token":"t"}`)
	req.Header.Set(interaction.HeaderTimestamp, "1700000001")

	rec := httptest.NewRecorder()
	env.srv.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid request signature")
}

func TestInteractionRejectsMissingHeaders(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodPost, InteractionsPath, strings.NewReader(`{"type":1}`))

	rec := httptest.NewRecorder()
	env.srv.Router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInteractionRecipeCommandAccepted(t *testing.T) {
	env := newTestEnv(t)
	body := `{"id":"1","application_id":"app1","type":2,"token":"tok","data":{"id":"c","name":"recipe","type":1,"options":[{"name":"url","type":3,"value":"https://youtu.be/abc"}]}}`

	rec := httptest.NewRecorder()
	env.srv.Router.ServeHTTP(rec, env.signedRequest(body))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp discordgo.InteractionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, discordgo.InteractionResponseChannelMessageWithSource, resp.Type)
	assert.Equal(t, "https://youtu.be/abc", resp.Data.Content)
	require.Len(t, env.pub.calls, 1)
	assert.Equal(t, "tok", env.pub.calls[0].Token)
}

func TestInteractionUnknownCommandIsPlainText(t *testing.T) {
	env := newTestEnv(t)
	body := `{"id":"1","application_id":"app1","type":2,"token":"tok","data":{"id":"c","name":"nope","type":1}}`

	rec := httptest.NewRecorder()
	env.srv.Router.ServeHTTP(rec, env.signedRequest(body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Command nope is not implemented.\n", rec.Body.String())
	assert.Empty(t, env.pub.calls)
}

func TestDocsHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.srv.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "POST /interactions")

	rec = httptest.NewRecorder()
	env.srv.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	env.srv.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "recipeclaw_")
}

func TestRequestIDGeneratedWhenAbsent(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(HeaderRequestID))
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestRequestIDHonoursInboundHeader(t *testing.T) {
	tests := []struct {
		name    string
		inbound string
		keep    bool
	}{
		{"proxy id", "edge-7f3a9c", true},
		{"empty", "", false},
		{"too long", strings.Repeat("a", maxRequestIDLen+1), false},
		{"contains space", "abc def", false},
		{"control character", "abc\x01", false},
		{"non ascii", "id-ü", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			h := RequestIDMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				seen = GetRequestID(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(HeaderRequestID, tt.inbound)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, seen, rec.Header().Get(HeaderRequestID))
			if tt.keep {
				assert.Equal(t, tt.inbound, seen)
			} else {
				assert.NotEqual(t, tt.inbound, seen)
				assert.Len(t, seen, 36)
			}
		})
	}
}

package discord

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Method string
	Path   string
	Body   map[string]any
}

func newWebhookServer(t *testing.T, status int, respBody string) (*httptest.Server, *[]capturedRequest) {
	t.Helper()
	var got []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		req := capturedRequest{Method: r.Method, Path: r.URL.Path}
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &req.Body)
		}
		got = append(got, req)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(respBody))
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestCreateFollowupPostsToWebhook(t *testing.T) {
	srv, got := newWebhookServer(t, http.StatusOK, `{"id":"9001","content":"Extracting recipe..."}`)
	c := NewClient(Config{ApplicationID: "app1", APIBase: srv.URL + "/"})

	resp, err := CreateFollowup(t.Context(), c, c.ApplicationID(), "tok", EphemeralFollowup("Extracting recipe..."))
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.NoError(t, resp.Err(http.MethodPost, "/x"))
	assert.Equal(t, "9001", MessageID(resp))

	require.Len(t, *got, 1)
	req := (*got)[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/webhooks/app1/tok", req.Path)
	assert.Equal(t, "Extracting recipe...", req.Body["content"])
	assert.EqualValues(t, discordgo.MessageFlagsEphemeral, req.Body["flags"])
}

func TestEditFollowupPatchesMessage(t *testing.T) {
	srv, got := newWebhookServer(t, http.StatusOK, `{"id":"9001"}`)
	c := NewClient(Config{ApplicationID: "app1", APIBase: srv.URL})

	content := "Extracted 2 recipe(s)."
	resp, err := EditFollowup(t.Context(), c, c.ApplicationID(), "tok", "9001", &discordgo.WebhookEdit{Content: &content})
	require.NoError(t, err)
	assert.True(t, resp.OK())

	require.Len(t, *got, 1)
	assert.Equal(t, http.MethodPatch, (*got)[0].Method)
	assert.Equal(t, "/webhooks/app1/tok/messages/9001", (*got)[0].Path)
	assert.Equal(t, content, (*got)[0].Body["content"])
}

func TestSendReturnsNon2xxWithoutError(t *testing.T) {
	srv, _ := newWebhookServer(t, http.StatusBadRequest, `{"message":"Invalid Form Body","code":50035}`)
	c := NewClient(Config{ApplicationID: "app1", APIBase: srv.URL})

	resp, err := CreateFollowup(t.Context(), c, c.ApplicationID(), "tok", EphemeralFollowup("x"))
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, MessageID(resp))

	apiErr := resp.Err(http.MethodPost, "/webhooks/app1/tok")
	var target *APIError
	require.ErrorAs(t, apiErr, &target)
	assert.Equal(t, http.StatusBadRequest, target.StatusCode)
	assert.Contains(t, target.Error(), "Invalid Form Body")
}

func TestSendTransportError(t *testing.T) {
	srv, _ := newWebhookServer(t, http.StatusOK, "{}")
	srv.Close()
	c := NewClient(Config{ApplicationID: "app1", APIBase: srv.URL})

	_, err := c.Send(t.Context(), http.MethodPost, "/webhooks/app1/tok", map[string]string{"content": "x"})
	assert.Error(t, err)
}

func TestResponseBuilders(t *testing.T) {
	assert.Equal(t, discordgo.InteractionResponsePong, PongResponse().Type)

	r := MessageResponse("hi", true)
	assert.Equal(t, discordgo.InteractionResponseChannelMessageWithSource, r.Type)
	assert.Equal(t, "hi", r.Data.Content)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, r.Data.Flags)

	assert.Zero(t, MessageResponse("hi", false).Data.Flags)

	embed := &discordgo.MessageEmbed{Title: "t"}
	assert.Equal(t, []*discordgo.MessageEmbed{embed}, EmbedFollowup(embed).Embeds)
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(Config{ApplicationID: "app"})
	assert.Equal(t, DefaultAPIBase, c.apiBase)
	assert.Equal(t, "app", c.ApplicationID())
}

package followup

import (
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhaopengme/recipeclaw/pkg/discord"
)

func fragmentsTitled(titles ...string) []Fragment {
	out := make([]Fragment, 0, len(titles))
	for _, t := range titles {
		out = append(out, Fragment{Embed: &discordgo.MessageEmbed{Title: t}})
	}
	return out
}

func TestDeliverAllSuccess(t *testing.T) {
	sender := &fakeSender{}
	d := NewDeliverer(sender, "app1")

	results, err := d.DeliverAll(t.Context(), "tok", fragmentsTitled("one", "two", "three"))
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.True(t, r.OK())
	}

	calls := sender.snapshot()
	require.Len(t, calls, 3)
	for _, c := range calls {
		assert.Equal(t, http.MethodPost, c.Method)
		assert.Equal(t, "/webhooks/app1/tok", c.Path)
	}
}

func TestDeliverAllAggregatesPartialFailure(t *testing.T) {
	sender := &fakeSender{respond: func(c sentCall) (*discord.WebhookResponse, error) {
		if c.embedTitle() == "two" {
			return &discord.WebhookResponse{StatusCode: http.StatusBadRequest, Body: []byte(`{"message":"Invalid Form Body"}`)}, nil
		}
		return &discord.WebhookResponse{StatusCode: http.StatusOK}, nil
	}}
	d := NewDeliverer(sender, "app1")

	results, err := d.DeliverAll(t.Context(), "tok", fragmentsTitled("one", "two", "three"))

	var derr *DeliveryError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, 1, derr.Failed)
	assert.Equal(t, 3, derr.Total)
	assert.Equal(t, "1 of 3 recipes failed to send", derr.Error())

	// no short-circuit: all three were attempted
	assert.Len(t, sender.snapshot(), 3)
	assert.True(t, results[0].OK())
	assert.False(t, results[1].OK())
	assert.Equal(t, http.StatusBadRequest, results[1].StatusCode)
	assert.Contains(t, results[1].Body, "Invalid Form Body")
	assert.True(t, results[2].OK())
}

func TestDeliverAllTransportErrorCountsAsFailure(t *testing.T) {
	sender := &fakeSender{respond: func(sentCall) (*discord.WebhookResponse, error) {
		return nil, errors.New("connection reset")
	}}
	d := NewDeliverer(sender, "app1")

	results, err := d.DeliverAll(t.Context(), "tok", fragmentsTitled("one", "two"))
	var derr *DeliveryError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, 2, derr.Failed)
	assert.EqualError(t, results[0].Err, "connection reset")
}

func TestDeliverAllRunsConcurrently(t *testing.T) {
	var inFlight, peak atomic.Int32
	sender := &fakeSender{respond: func(sentCall) (*discord.WebhookResponse, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		inFlight.Add(-1)
		return &discord.WebhookResponse{StatusCode: http.StatusNoContent}, nil
	}}
	d := NewDeliverer(sender, "app1")

	_, err := d.DeliverAll(t.Context(), "tok", fragmentsTitled("a", "b", "c", "d"))
	require.NoError(t, err)
	assert.Greater(t, peak.Load(), int32(1))
}

func TestDeliverAllEmpty(t *testing.T) {
	results, err := NewDeliverer(&fakeSender{}, "app1").DeliverAll(t.Context(), "tok", nil)
	assert.NoError(t, err)
	assert.Empty(t, results)
}

func TestDeliverAllRecoversFromSenderPanic(t *testing.T) {
	sender := &fakeSender{respond: func(c sentCall) (*discord.WebhookResponse, error) {
		if c.embedTitle() == "two" {
			panic("encoder bug")
		}
		return &discord.WebhookResponse{StatusCode: http.StatusOK}, nil
	}}
	d := NewDeliverer(sender, "app1")

	var results []DeliveryResult
	var err error
	require.NotPanics(t, func() {
		results, err = d.DeliverAll(t.Context(), "tok", fragmentsTitled("one", "two", "three"))
	})

	var derr *DeliveryError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, 1, derr.Failed)
	assert.Equal(t, 3, derr.Total)
	assert.True(t, results[0].OK())
	assert.False(t, results[1].OK())
	assert.ErrorContains(t, results[1].Err, "encoder bug")
	assert.True(t, results[2].OK())
}

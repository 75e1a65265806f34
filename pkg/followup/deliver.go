package followup

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/zhaopengme/recipeclaw/pkg/discord"
	"github.com/zhaopengme/recipeclaw/pkg/logger"
	"github.com/zhaopengme/recipeclaw/pkg/metrics"
)

// DeliveryResult is the outcome of posting one fragment.
type DeliveryResult struct {
	Index      int
	StatusCode int
	Body       string
	Err        error
}

func (r DeliveryResult) OK() bool {
	return r.Err == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// DeliveryError reports how many fragments of a batch were not accepted.
type DeliveryError struct {
	Failed  int
	Total   int
	Results []DeliveryResult
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%d of %d recipes failed to send", e.Failed, e.Total)
}

type Deliverer struct {
	sender discord.WebhookSender
	appID  string
}

func NewDeliverer(sender discord.WebhookSender, appID string) *Deliverer {
	return &Deliverer{sender: sender, appID: appID}
}

// DeliverAll posts every fragment concurrently and waits for all of them.
// A failed post never cancels its siblings and is never retried. Results are
// in fragment order.
func (d *Deliverer) DeliverAll(ctx context.Context, token string, fragments []Fragment) ([]DeliveryResult, error) {
	results := make([]DeliveryResult, len(fragments))

	var g errgroup.Group
	for i, f := range fragments {
		g.Go(func() error {
			results[i] = d.deliverOne(ctx, token, i, f)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		metrics.RecordFragment(r.OK())
		if r.OK() {
			continue
		}
		failed++
		fields := map[string]any{
			"index":  r.Index,
			"status": r.StatusCode,
			"body":   r.Body,
		}
		if r.Err != nil {
			fields["error"] = r.Err.Error()
		}
		logger.ErrorCF("followup", "Failed to send recipe", fields)
	}

	if failed > 0 {
		return results, &DeliveryError{Failed: failed, Total: len(fragments), Results: results}
	}
	return results, nil
}

func (d *Deliverer) deliverOne(ctx context.Context, token string, index int, f Fragment) (res DeliveryResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorCF("followup", "Recovered from panic while sending recipe", map[string]any{
				"index": index,
				"panic": fmt.Sprint(r),
			})
			res = DeliveryResult{Index: index, Err: fmt.Errorf("panic while sending: %v", r)}
		}
	}()

	resp, err := discord.CreateFollowup(ctx, d.sender, d.appID, token, f.Params())
	if err != nil {
		return DeliveryResult{Index: index, Err: err}
	}
	return DeliveryResult{Index: index, StatusCode: resp.StatusCode, Body: string(resp.Body)}
}

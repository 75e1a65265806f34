package bus

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/zhaopengme/recipeclaw/pkg/logger"
)

// runHandler calls h and turns a panic into an error so one bad continuation
// cannot take the worker down.
func runHandler(ctx context.Context, h Handler, env Envelope) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorCF("bus", "Recovered from panic in continuation handler", map[string]any{
				"id":    env.ID,
				"token": RedactToken(env.Continuation.Token),
				"panic": fmt.Sprint(r),
				"stack": string(debug.Stack()),
			})
			err = fmt.Errorf("continuation handler panic: %v", r)
		}
	}()
	return h(ctx, env)
}

package bus

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var ErrInvalidContinuation = errors.New("bus: invalid continuation")

// Continuation is the only state carried from the interaction request to the
// deferred follow-up phase.
type Continuation struct {
	URL   string `json:"url"`
	Token string `json:"token"`
}

func (c Continuation) Validate() error {
	var missing []string
	if strings.TrimSpace(c.URL) == "" {
		missing = append(missing, "url")
	}
	if strings.TrimSpace(c.Token) == "" {
		missing = append(missing, "token")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidContinuation, strings.Join(missing, ", "))
	}
	return nil
}

// RedactToken keeps the first 8 characters of an interaction token for logs.
func RedactToken(token string) string {
	if utf8.RuneCountInString(token) <= 8 {
		return strings.Repeat("*", utf8.RuneCountInString(token))
	}
	return string([]rune(token)[:8]) + "…"
}

// Envelope is a continuation as seen by a consumer.
type Envelope struct {
	ID           string
	Continuation Continuation
}

type Handler func(context.Context, Envelope) error

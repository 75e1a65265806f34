package bus

import "context"

type Publisher interface {
	// Publish hands c to the deferred phase and returns the queue message id.
	Publish(ctx context.Context, c Continuation) (string, error)
}

type Consumer interface {
	// Consume delivers continuations to h until ctx is done or the queue closes.
	Consume(ctx context.Context, h Handler) error
}

type Queue interface {
	Publisher
	Consumer
	Close() error
}

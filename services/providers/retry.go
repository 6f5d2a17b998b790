package providers

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RetryingCompleter retries rate-limited completions with a fixed delay.
// Any other error is returned immediately.
type RetryingCompleter struct {
	next       Completer
	maxRetries int
	delay      time.Duration
	logger     *zap.Logger
}

// NewRetryingCompleter wraps next. maxRetries < 0 is treated as 0.
func NewRetryingCompleter(next Completer, maxRetries int, delay time.Duration, logger *zap.Logger) *RetryingCompleter {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryingCompleter{
		next:       next,
		maxRetries: maxRetries,
		delay:      delay,
		logger:     logger,
	}
}

// Complete implements Completer
func (r *RetryingCompleter) Complete(ctx context.Context, model, prompt string) (string, error) {
	for attempt := 0; ; attempt++ {
		out, err := r.next.Complete(ctx, model, prompt)
		if err == nil || !IsRateLimited(err) || attempt >= r.maxRetries {
			return out, err
		}

		r.logger.Warn("completion rate limited, retrying",
			zap.String("model", model),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", r.maxRetries),
			zap.Duration("delay", r.delay),
		)

		timer := time.NewTimer(r.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}
}

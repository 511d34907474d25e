package amqp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pfm/internal/log"
)

const maxBackoff = 30 * time.Second

// exponentialBackoff doubles from one second, capped at maxBackoff.
func exponentialBackoff(attempt int) time.Duration {
	if attempt >= 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, s := range []string{"connection refused", "connection closed", "EOF", "broken pipe", "closed network connection", "no such host", "i/o timeout"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// Connect retries NewClient while the broker is unreachable, up to
// attempts tries. Other errors fail immediately.
func Connect(ctx context.Context, url, exchangeName, queueName string, logger *log.Logger, attempts int) (*Client, error) {
	if logger == nil {
		logger = log.Nop()
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		c, err := NewClient(url, exchangeName, queueName, logger)
		if err == nil {
			return c, nil
		}
		lastErr = err
		if !isConnectionError(err) {
			return nil, err
		}
		wait := exponentialBackoff(i)
		logger.WarnContext(ctx, "AMQP broker unreachable, retrying",
			log.FieldError, err, "attempt", i+1, "wait", wait)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, fmt.Errorf("connect to AMQP after %d attempts: %w", attempts, lastErr)
}

package evm

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// withRetry runs fn with exponential backoff. Retryable failures sleep
// min(baseDelay * multiplier^(attempt-1), maxDelay) and retry up to the
// configured attempt budget; non-retryable errors and the final attempt
// propagate immediately.
func (a *Adapter) withRetry(ctx context.Context, op string, fn func(context.Context) error) error {
	cfg := a.config.Retry

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxRetries; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt == cfg.MaxRetries || !a.isRetryable(lastErr) {
			return lastErr
		}

		delay := backoffDelay(cfg.BaseDelay, cfg.MaxDelay, cfg.BackoffMultiplier, attempt)
		a.logger.WithFields(logrus.Fields{
			"network": a.config.Name,
			"op":      op,
			"attempt": attempt,
			"delay":   delay,
			"error":   lastErr,
		}).Warn("Retryable failure, backing off")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return lastErr
}

// backoffDelay computes baseDelay * multiplier^(attempt-1) capped at maxDelay.
func backoffDelay(base, max time.Duration, multiplier float64, attempt int) time.Duration {
	delay := float64(base)
	for i := 1; i < attempt; i++ {
		delay *= multiplier
		if delay >= float64(max) {
			return max
		}
	}
	if delay > float64(max) {
		return max
	}
	return time.Duration(delay)
}

// isRetryable classifies an error against the variant's retryable
// substrings: network/timeout trouble, nonce conflicts, underpriced or
// replacement failures and generic server errors.
func (a *Adapter) isRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, token := range a.tuning.RetryableSubstrings {
		if strings.Contains(msg, token) {
			return true
		}
	}
	return false
}

package embed

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/lhl/realitycheck/internal/errors"
	"github.com/lhl/realitycheck/internal/logger"
)

// DefaultRetryAttempts is the number of calls made before giving up
const DefaultRetryAttempts = 3

// retrySleepFunc is replaced in tests
var retrySleepFunc = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RetryProvider repeats calls that failed with a transient error (429,
// 5xx, refused or reset connections) with exponential backoff
type RetryProvider struct {
	inner    Provider
	attempts int
	backoff  time.Duration
	logger   *zap.Logger
}

// NewRetryProvider wraps inner. attempts <= 0 uses DefaultRetryAttempts.
func NewRetryProvider(inner Provider, attempts int, backoff time.Duration, log *zap.Logger) *RetryProvider {
	if attempts <= 0 {
		attempts = DefaultRetryAttempts
	}
	if backoff <= 0 {
		backoff = time.Second
	}
	return &RetryProvider{inner: inner, attempts: attempts, backoff: backoff, logger: logger.OrNop(log)}
}

func (p *RetryProvider) Name() string  { return p.inner.Name() }
func (p *RetryProvider) Model() string { return p.inner.Model() }

func (p *RetryProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	delay := p.backoff
	for attempt := 1; attempt <= p.attempts; attempt++ {
		vec, err := p.inner.Embed(ctx, text)
		if err == nil {
			return vec, nil
		}
		lastErr = err
		if attempt == p.attempts || !isRetryable(err) || ctx.Err() != nil {
			break
		}

		p.logger.Debug("Retrying embedding request",
			zap.String("provider", p.inner.Name()),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
		if err := retrySleepFunc(ctx, delay); err != nil {
			break
		}
		delay *= 2
	}
	return nil, lastErr
}

var statusPattern = regexp.MustCompile(`\((\d{3})\)`)

// isRetryable reports whether err is worth another attempt
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}

	msg := err.Error()
	if m := statusPattern.FindStringSubmatch(msg); m != nil {
		code, _ := strconv.Atoi(m[1])
		return retryableStatus(code)
	}
	return strings.Contains(msg, "connection refused") || strings.Contains(msg, "connection reset")
}

func retryableStatus(code int) bool {
	return code == 429 || code >= 500
}

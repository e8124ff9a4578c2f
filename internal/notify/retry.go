package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/smithy-go"
	gomail "github.com/wneessen/go-mail"

	"github.com/t5fueling/t5fueling-web/pkg/logging"
)

const (
	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries = 3
	// DefaultBaseDelay is the wait before the first retry. Each later retry
	// doubles it.
	DefaultBaseDelay = time.Second
)

// nonRetriableCodes are SES error codes that will fail the same way on
// every attempt.
var nonRetriableCodes = map[string]struct{}{
	"MessageRejected":                    {},
	"ConfigurationSetDoesNotExist":       {},
	"InvalidParameterValue":              {},
	"BadRequestException":                {},
	"MailFromDomainNotVerifiedException": {},
	"AccountSuspendedException":          {},
	"NotFoundException":                  {},
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsRetriable reports whether another send attempt could succeed.
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}
	var perm *permanentError
	if errors.As(err, &perm) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if _, ok := nonRetriableCodes[apiErr.ErrorCode()]; ok {
			return false
		}
	}
	var sendErr *gomail.SendError
	if errors.As(err, &sendErr) && !sendErr.IsTemp() {
		return false
	}
	return true
}

// RetryingSender wraps an EmailSender with exponential backoff. The wait
// before retry n (counting from zero) is baseDelay * 2^n.
type RetryingSender struct {
	next       EmailSender
	maxRetries int
	baseDelay  time.Duration
	logger     *logging.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewRetryingSender wraps next. Negative maxRetries and non-positive
// baseDelay fall back to the defaults.
func NewRetryingSender(next EmailSender, maxRetries int, baseDelay time.Duration, logger *logging.Logger) *RetryingSender {
	if next == nil {
		panic("notify: sender required")
	}
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RetryingSender{
		next:       next,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
		sleep:      sleepWithContext,
	}
}

// Send implements EmailSender.
func (s *RetryingSender) Send(ctx context.Context, msg EmailMessage) error {
	_, err := s.SendWithAttempts(ctx, msg)
	return err
}

// SendWithAttempts sends msg and reports how many attempts were made. At
// most maxRetries+1 attempts are made. A non-retriable error or a done
// context stops the loop early.
func (s *RetryingSender) SendWithAttempts(ctx context.Context, msg EmailMessage) (int, error) {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		err := s.next.Send(ctx, msg)
		if err == nil {
			if attempt > 0 {
				s.logger.Info("notify: email sent after retry", "attempts", attempt+1, "to", msg.To)
			}
			return attempt + 1, nil
		}
		lastErr = err

		if !IsRetriable(err) {
			s.logger.Warn("notify: non-retriable send error", "error", err, "attempt", attempt+1)
			return attempt + 1, err
		}
		if attempt == s.maxRetries {
			break
		}

		delay := s.baseDelay << attempt
		s.logger.Warn("notify: send failed, retrying", "error", err, "attempt", attempt+1, "delay", delay.String())
		if err := s.sleep(ctx, delay); err != nil {
			return attempt + 1, fmt.Errorf("notify: retry aborted: %w", errors.Join(lastErr, err))
		}
	}
	return s.maxRetries + 1, fmt.Errorf("notify: giving up after %d attempts: %w", s.maxRetries+1, lastErr)
}

var _ EmailSender = (*RetryingSender)(nil)

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

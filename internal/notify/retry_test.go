package notify

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedSender struct {
	errs  []error
	calls int
}

func (s *scriptedSender) Send(context.Context, EmailMessage) error {
	s.calls++
	if len(s.errs) == 0 {
		return nil
	}
	err := s.errs[0]
	s.errs = s.errs[1:]
	return err
}

func newTestRetrying(next EmailSender, maxRetries int) (*RetryingSender, *[]time.Duration) {
	var delays []time.Duration
	s := NewRetryingSender(next, maxRetries, time.Second, nil)
	s.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return ctx.Err()
	}
	return s, &delays
}

func throttled() error {
	return &smithy.GenericAPIError{Code: "Throttling", Message: "Maximum sending rate exceeded."}
}

func TestRetryingSender_SucceedsFirstTry(t *testing.T) {
	next := &scriptedSender{}
	s, delays := newTestRetrying(next, 3)

	attempts, err := s.SendWithAttempts(context.Background(), EmailMessage{To: "info@t5fueling.com"})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	assert.Empty(t, *delays)
}

func TestRetryingSender_RecoversAfterTransientFailures(t *testing.T) {
	next := &scriptedSender{errs: []error{throttled(), throttled()}}
	s, delays := newTestRetrying(next, 3)

	attempts, err := s.SendWithAttempts(context.Background(), EmailMessage{})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *delays)
}

func TestRetryingSender_ExhaustsWithExponentialDelays(t *testing.T) {
	last := errors.New("connection reset by peer")
	next := &scriptedSender{errs: []error{throttled(), throttled(), throttled(), last}}
	s, delays := newTestRetrying(next, 3)

	attempts, err := s.SendWithAttempts(context.Background(), EmailMessage{})

	require.Error(t, err)
	assert.ErrorIs(t, err, last)
	assert.Equal(t, 4, attempts)
	assert.Equal(t, 4, next.calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, *delays)
}

func TestRetryingSender_NonRetriableStopsImmediately(t *testing.T) {
	rejected := fmt.Errorf("notify: SES send failed: %w", &smithy.GenericAPIError{Code: "MessageRejected"})
	next := &scriptedSender{errs: []error{rejected}}
	s, delays := newTestRetrying(next, 3)

	attempts, err := s.SendWithAttempts(context.Background(), EmailMessage{})

	assert.ErrorIs(t, err, rejected)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, next.calls)
	assert.Empty(t, *delays)
}

func TestRetryingSender_ZeroRetries(t *testing.T) {
	next := &scriptedSender{errs: []error{throttled()}}
	s, delays := newTestRetrying(next, 0)

	attempts, err := s.SendWithAttempts(context.Background(), EmailMessage{})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Empty(t, *delays)
}

func TestRetryingSender_StopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	next := &scriptedSender{errs: []error{throttled(), throttled()}}
	s, _ := newTestRetrying(next, 3)

	attempts, err := s.SendWithAttempts(ctx, EmailMessage{})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestRetryingSender_SendDelegates(t *testing.T) {
	next := &scriptedSender{errs: []error{throttled()}}
	s, _ := newTestRetrying(next, 1)

	assert.NoError(t, s.Send(context.Background(), EmailMessage{}))
	assert.Equal(t, 2, next.calls)
}

func TestNewRetryingSender_Defaults(t *testing.T) {
	s := NewRetryingSender(&scriptedSender{}, -1, 0, nil)
	assert.Equal(t, DefaultMaxRetries, s.maxRetries)
	assert.Equal(t, DefaultBaseDelay, s.baseDelay)
}

func TestIsRetriable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("timeout"), true},
		{"permanent", Permanent(errors.New("bad address")), false},
		{"wrapped permanent", fmt.Errorf("outer: %w", Permanent(errors.New("x"))), false},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("send: %w", context.DeadlineExceeded), false},
		{"ses throttling", throttled(), true},
		{"ses message rejected", &smithy.GenericAPIError{Code: "MessageRejected"}, false},
		{"ses config set", &smithy.GenericAPIError{Code: "ConfigurationSetDoesNotExist"}, false},
		{"ses invalid param", &smithy.GenericAPIError{Code: "InvalidParameterValue"}, false},
		{"ses bad request", &smithy.GenericAPIError{Code: "BadRequestException"}, false},
		{"ses suspended", &smithy.GenericAPIError{Code: "AccountSuspendedException"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetriable(tt.err))
		})
	}
}

func TestPermanentNil(t *testing.T) {
	assert.NoError(t, Permanent(nil))
}

func TestSleepWithContext(t *testing.T) {
	assert.NoError(t, sleepWithContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepWithContext(ctx, time.Minute), context.Canceled)
}

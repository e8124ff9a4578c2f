package leads

import "context"

// Notifier delivers the staff email for a stored submission. Delivery is
// best effort: the result is logged by the caller and never changes the
// response sent to the submitter.
type Notifier interface {
	NotifyNewSubmission(ctx context.Context, sub *Submission) NotificationResult
}

// NotificationResult reports how a notification went.
type NotificationResult struct {
	Provider string
	Attempts int
	Err      error
}

// Delivered reports whether the email was accepted by the provider.
func (r NotificationResult) Delivered() bool {
	return r.Err == nil
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, sub *Submission) NotificationResult

func (f NotifierFunc) NotifyNewSubmission(ctx context.Context, sub *Submission) NotificationResult {
	return f(ctx, sub)
}

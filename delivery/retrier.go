package delivery

import (
	"time"

	"github.com/gridhook/gridhook/webhook"
)

// Decision is the outcome of evaluating a delivery attempt.
type Decision int

const (
	// Delivered means the delivery was successful (2xx).
	Delivered Decision = iota

	// Retry means the delivery should be retried later.
	Retry

	// Abandon means retries were exhausted and the delivery is done.
	Abandon

	// Fail means the error is permanent and retrying would not help.
	Fail
)

// Result holds the outcome of a single delivery attempt.
type Result struct {
	StatusCode int
	Error      string
	Response   string
	LatencyMs  int

	// Permanent marks errors that cannot succeed on retry regardless of the
	// status code, such as an unrenderable payload template.
	Permanent bool
}

// Retrier decides what to do after a delivery attempt.
type Retrier struct{}

// NewRetrier creates a retrier.
func NewRetrier() *Retrier {
	return &Retrier{}
}

// permanentStatus reports status codes that will not self-correct:
// auth/not-found style client errors and 410 Gone.
func permanentStatus(code int) bool {
	switch code {
	case 401, 403, 404, 410:
		return true
	}
	return false
}

// Decide determines what to do with a delivery after an attempt.
//
// Decision matrix:
//   - 2xx → Delivered
//   - 401/403/404/410 → Fail (permanent, no retry)
//   - any other non-2xx, transport error, timeout → Retry while attempts
//     remain, else Abandon
func (r *Retrier) Decide(res Result, d *Delivery) Decision {
	code := res.StatusCode

	if code >= 200 && code < 300 {
		return Delivered
	}

	if res.Permanent || permanentStatus(code) {
		return Fail
	}

	if d.AttemptCount < d.MaxAttempts {
		return Retry
	}
	return Abandon
}

// ComputeNextAttempt returns the time of the next attempt for a delivery that
// has just completed its attemptCount-th attempt, following the webhook's
// capped exponential backoff.
func (r *Retrier) ComputeNextAttempt(policy webhook.RetryPolicy, attemptCount int) time.Time {
	return time.Now().UTC().Add(policy.Delay(attemptCount))
}

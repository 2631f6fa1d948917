package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Channel names.
const (
	ChannelChat  = "chat"
	ChannelEmail = "email"
)

// Provider sends notifications over one channel. Implementations must be
// safe for concurrent use.
type Provider interface {
	// Channel returns the channel name this provider serves.
	Channel() string

	// ValidateRecipient checks an address shape before any network work.
	ValidateRecipient(recipient string) error

	// Send delivers the notification to a single recipient. Failures the
	// dispatcher should not retry are reported as *PermanentError.
	Send(ctx context.Context, recipient string, n *Notification) error
}

// PermanentError marks a send failure that retrying cannot fix, such as a
// revoked token or an unknown recipient.
type PermanentError struct {
	Reason string
}

func (e *PermanentError) Error() string {
	return "permanent send failure: " + e.Reason
}

// RateLimitError reports that the channel's rate limit rejected the send.
// The dispatcher surfaces it without retrying; the caller decides when to
// resubmit.
type RateLimitError struct {
	Channel    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for channel %s", e.Channel)
}

// ErrInvalidRecipient indicates a recipient address that no channel accepts.
var ErrInvalidRecipient = errors.New("notify: invalid recipient")

// permanentMarkers are remote error codes that identify unretryable
// failures regardless of the transport status.
var permanentMarkers = []string{
	"channel_not_found",
	"invalid_auth",
	"user_not_found",
	"not_in_channel",
	"account_inactive",
	"token_revoked",
}

// IsPermanent classifies a send error. PermanentError values and errors
// whose text carries a known permanent marker stop retries; everything else
// is treated as transient.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	var perr *PermanentError
	if errors.As(err, &perr) {
		return true
	}
	msg := err.Error()
	for _, marker := range permanentMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// ChannelFor infers the delivery channel from the recipient's shape:
// "#channel" and "@user" route to chat, addresses containing "@" route to
// email. Anything else is invalid.
func ChannelFor(recipient string) (string, error) {
	switch {
	case recipient == "":
		return "", fmt.Errorf("%w: empty address", ErrInvalidRecipient)
	case strings.HasPrefix(recipient, "#"), strings.HasPrefix(recipient, "@"):
		return ChannelChat, nil
	case strings.Contains(recipient, "@"):
		return ChannelEmail, nil
	default:
		return "", fmt.Errorf("%w: %q matches no channel", ErrInvalidRecipient, recipient)
	}
}

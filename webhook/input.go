package webhook

// Input is the creation/update payload for webhooks.
type Input struct {
	// OwnerID identifies the owner of this webhook.
	OwnerID string `json:"owner_id"`

	// URL is the delivery URL.
	URL string `json:"url"`

	// Description is a human-readable description.
	Description string `json:"description"`

	// Secret is the HMAC signing secret. Auto-generated if empty on create.
	Secret string `json:"secret"`

	// EventTypes are patterns for event type subscriptions. May contain "*".
	EventTypes []string `json:"event_types"`

	// Headers are custom HTTP headers sent with each delivery.
	Headers map[string]string `json:"headers,omitempty"`

	// PayloadTemplate is an optional template rendered with event fields.
	PayloadTemplate string `json:"payload_template,omitempty"`

	// RetryPolicy overrides the default retry policy. Zero fields keep defaults.
	RetryPolicy *RetryPolicy `json:"retry_policy,omitempty"`

	// Metadata holds user-defined key-value pairs.
	Metadata map[string]string `json:"metadata,omitempty"`
}

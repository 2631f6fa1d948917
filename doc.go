// Package gridhook provides a composable integration and event hub for Go.
//
// Gridhook is a library — not a service. Import it into your application to
// get owner-scoped webhook delivery with HMAC signatures and retries, a
// pluggable connector registry for third-party integrations, a wildcard
// event bus, multi-channel notifications, and a dead letter queue with
// replay.
//
// Key features:
//   - Webhook delivery with HMAC-SHA256 signing, exponential backoff and DLQ
//   - Connector registry with JSON Schema parameter validation (GitHub,
//     Slack, Jira, AWS included)
//   - Event bus with exact, "*" and "order.*" segment-wildcard matching
//   - Multi-channel notification dispatch with per-channel rate limiting
//   - Composable store pattern with Redis and in-memory backends
//
// Quick start:
//
//	hub, err := gridhook.New(
//	    gridhook.WithStore(memoryStore),
//	    gridhook.WithConnector(slack.New()),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	hub.Start(ctx)
//	defer hub.Stop(ctx)
//
//	hub.Subscribe(ctx, bus.SubscribeInput{
//	    OwnerID:    "acct_123",
//	    EventTypes: []string{"order.*"},
//	    Endpoint:   "https://example.com/hooks",
//	})
//
//	hub.Publish(ctx, event.New("order.created", "billing", "acct_123",
//	    map[string]any{"order_id": "ord_01h..."}))
package gridhook

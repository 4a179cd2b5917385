// Package webhook implements outbound webhook delivery for notifications.
//
// A Dispatcher loads a persisted notification, matches it against the
// recipient's active subscriptions, renders a signed JSON payload, and POSTs
// it to each matching endpoint. Endpoint health is tracked per subscription:
// a successful delivery resets the failure counter and repeated failures
// disable the subscription automatically.
package webhook

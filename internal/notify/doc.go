// Package notify is an in-process publish/subscribe register keyed by topic.
//
// Delivery rules:
//   - Handlers run synchronously on the publishing goroutine.
//   - Handlers run in registration order, as captured when Publish starts.
//     A handler subscribed while a Publish is in progress is not invoked for
//     that Publish.
//   - A panicking handler is recovered and logged. Remaining handlers still
//     run and the panic never reaches the publisher.
//   - Topics are independent: unsubscribing from one never affects another.
package notify

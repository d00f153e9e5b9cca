package notify

import (
	"fmt"
	"log/slog"
	"sync"
)

// Handler receives one published payload.
type Handler[P any] func(topic string, payload P)

// Token identifies a subscription for Unsubscribe.
type Token struct {
	topic string
	id    uint64
}

// Topic returns the topic the token was issued for ("" for wildcard
// subscriptions).
func (t Token) Topic() string { return t.topic }

type subscription[P any] struct {
	id      uint64
	handler Handler[P]
}

// Notifier delivers payloads of type P to topic subscribers.
//
// Thread-safety: all methods are safe for concurrent use. The registry lock
// is never held while handlers run, so handlers may subscribe, unsubscribe,
// or publish re-entrantly.
type Notifier[P any] struct {
	mu       sync.Mutex
	nextID   uint64
	topics   map[string][]subscription[P]
	wildcard []subscription[P]
	logger   *slog.Logger
}

// Option configures a Notifier.
type Option func(*config)

type config struct {
	logger *slog.Logger
}

// WithLogger sets the logger used to report handler panics.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// New creates an empty Notifier.
func New[P any](opts ...Option) *Notifier[P] {
	c := config{logger: slog.Default()}
	for _, opt := range opts {
		opt(&c)
	}
	return &Notifier[P]{
		topics: make(map[string][]subscription[P]),
		logger: c.logger,
	}
}

// Subscribe registers h for topic and returns a token for Unsubscribe.
func (n *Notifier[P]) Subscribe(topic string, h Handler[P]) Token {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	n.topics[topic] = append(n.topics[topic], subscription[P]{id: n.nextID, handler: h})
	return Token{topic: topic, id: n.nextID}
}

// SubscribeAll registers h for every topic. Wildcard handlers run after the
// topic's own handlers.
func (n *Notifier[P]) SubscribeAll(h Handler[P]) Token {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	n.wildcard = append(n.wildcard, subscription[P]{id: n.nextID, handler: h})
	return Token{id: n.nextID}
}

// Unsubscribe removes the subscription identified by tok. It returns false
// if the subscription was already gone.
func (n *Notifier[P]) Unsubscribe(tok Token) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if tok.topic == "" {
		var ok bool
		n.wildcard, ok = without(n.wildcard, tok.id)
		return ok
	}

	subs, ok := without(n.topics[tok.topic], tok.id)
	if !ok {
		return false
	}
	if len(subs) == 0 {
		delete(n.topics, tok.topic)
	} else {
		n.topics[tok.topic] = subs
	}
	return true
}

// Publish delivers payload to the handlers registered for topic when the
// call starts, then to wildcard handlers. It returns the number of handlers
// invoked.
func (n *Notifier[P]) Publish(topic string, payload P) int {
	n.mu.Lock()
	subs := make([]subscription[P], 0, len(n.topics[topic])+len(n.wildcard))
	subs = append(subs, n.topics[topic]...)
	subs = append(subs, n.wildcard...)
	n.mu.Unlock()

	for _, s := range subs {
		n.invoke(topic, s, payload)
	}
	return len(subs)
}

// Clear removes every handler for topic.
func (n *Notifier[P]) Clear(topic string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.topics, topic)
}

// ClearAll removes every handler, including wildcard handlers.
func (n *Notifier[P]) ClearAll() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.topics = make(map[string][]subscription[P])
	n.wildcard = nil
}

// Count returns the number of handlers registered for topic.
func (n *Notifier[P]) Count(topic string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.topics[topic])
}

func (n *Notifier[P]) invoke(topic string, s subscription[P], payload P) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("change handler panicked",
				"topic", topic,
				"subscription", s.id,
				"err", fmt.Sprint(r),
			)
		}
	}()
	s.handler(topic, payload)
}

// without returns subs minus the entry with id, copying so that snapshots
// taken by an in-flight Publish are never modified.
func without[P any](subs []subscription[P], id uint64) ([]subscription[P], bool) {
	for i, s := range subs {
		if s.id == id {
			out := make([]subscription[P], 0, len(subs)-1)
			out = append(out, subs[:i]...)
			out = append(out, subs[i+1:]...)
			return out, true
		}
	}
	return subs, false
}

package engine

import (
	"sync/atomic"

	"github.com/roach88/cartsync/internal/notify"
)

// outbox serializes change-event delivery.
//
// Events are enqueued while the engine lock is held, so queue order is commit
// order. Exactly one goroutine drains at a time; a drain requested while
// another is running (including a re-entrant call from a handler) returns
// immediately and the running drainer delivers the event.
type outbox struct {
	events   *queue[ChangeEvent]
	draining atomic.Bool
}

func newOutbox() *outbox {
	return &outbox{events: newQueue[ChangeEvent]()}
}

func (o *outbox) enqueue(ev ChangeEvent) {
	o.events.Enqueue(ev)
}

// drain publishes queued events in FIFO order until the queue is empty.
func (o *outbox) drain(n *notify.Notifier[ChangeEvent]) {
	for {
		if !o.draining.CompareAndSwap(false, true) {
			return
		}
		for {
			ev, ok := o.events.TryDequeue()
			if !ok {
				break
			}
			n.Publish(ev.Topic, ev)
		}
		o.draining.Store(false)

		// An event enqueued between the last TryDequeue and the Store above
		// saw draining=true and left it to us.
		if o.events.Len() == 0 {
			return
		}
	}
}

// pending returns the number of undelivered events.
func (o *outbox) pending() int {
	return o.events.Len()
}

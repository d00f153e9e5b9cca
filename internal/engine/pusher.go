package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/roach88/cartsync/internal/collection"
)

type pushJob struct {
	owner string
	snap  collection.Collection
}

// pusher performs remote pushes on one worker goroutine, in enqueue order,
// so remote writes for one key never overtake each other.
type pusher struct {
	remote Remote
	logger *slog.Logger
	jobs   *queue[pushJob]
	done   chan struct{}
	stop   chan struct{}
	halt   sync.Once
}

func startPusher(r Remote, logger *slog.Logger) *pusher {
	p := &pusher{
		remote: r,
		logger: logger,
		jobs:   newQueue[pushJob](),
		done:   make(chan struct{}),
		stop:   make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *pusher) enqueue(owner string, c collection.Collection) bool {
	return p.jobs.Enqueue(pushJob{owner: owner, snap: c})
}

func (p *pusher) run() {
	defer close(p.done)
	for {
		select {
		case <-p.stop:
			return
		default:
		}

		job, ok := p.jobs.TryDequeue()
		if ok {
			// Pushes outlive the mutation call that queued them, so they
			// run on a fresh context bounded by the backend's own timeout.
			if err := p.remote.Push(context.Background(), job.owner, job.snap); err != nil {
				p.logger.Warn("background remote push failed; local state stands",
					"owner", job.owner,
					"err", err,
				)
			}
			continue
		}

		if p.jobs.Closed() {
			return
		}

		select {
		case <-p.stop:
			return
		case <-p.jobs.Wait():
		}
	}
}

// close stops accepting jobs and waits for queued ones to finish, or for
// ctx to end.
func (p *pusher) close(ctx context.Context) error {
	p.jobs.Close()
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		p.halt.Do(func() { close(p.stop) })
		return ctx.Err()
	}
}

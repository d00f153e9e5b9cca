package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/cartsync/internal/collection"
	"github.com/roach88/cartsync/internal/localstore"
	"github.com/roach88/cartsync/internal/notify"
	"github.com/roach88/cartsync/internal/remote"
)

// Remote is the remote collection backend capability. *remote.Backend
// implements it.
type Remote interface {
	Fetch(ctx context.Context, owner string, kind collection.Kind) (collection.Collection, error)
	Push(ctx context.Context, owner string, c collection.Collection) error
}

// Mode selects whether a mutation may touch the remote backend.
type Mode int

const (
	// Synced mutations push the new snapshot when an owner is configured.
	Synced Mode = iota
	// LocalOnly mutations never touch the remote backend.
	LocalOnly
)

// Tx is the mutable view an Op works on. Collection is a private copy; the
// engine commits it only if the Op reports a change.
type Tx struct {
	Collection *collection.Collection
	Now        time.Time
	ids        IDGenerator
}

// NewEntryID returns a fresh entry identifier.
func (tx *Tx) NewEntryID() string {
	return tx.ids.NewID()
}

// Op applies one logical mutation. It returns the change to publish and
// ok=false when the collection was left unchanged (no write, no event).
type Op func(tx *Tx) (change Change, ok bool)

// Engine owns one collection (cart or wishlist) under one storage key.
//
// Every mutation runs read-local → apply → recompute → write-local → enqueue
// event inside one critical section. The remote push happens after the
// section is released, so a second mutation issued while a push is pending
// observes the already-updated local state. Events are then drained from a
// FIFO outbox, so subscribers see them in mutation order even when remote
// legs finish out of order.
//
// The local store is the source of truth for whether a mutation succeeded;
// remote failures are logged and never roll back or fail a mutation.
//
// Thread-safety: all methods are safe for concurrent use. Handlers may call
// back into the engine; an event caused by a handler is delivered after the
// handler chain that caused it returns.
type Engine struct {
	mu       sync.Mutex
	kind     collection.Kind
	key      string
	local    localstore.Store
	remote   Remote
	notifier *notify.Notifier[ChangeEvent]
	ids      IDGenerator
	clock    TimeSource
	seq      *Sequence
	logger   *slog.Logger

	current  collection.Collection
	hydrated bool
	owner    string

	outbox *outbox
	pusher *pusher

	background bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithRemote sets the remote backend. Without one, remote behavior is
// disabled even when an owner is set.
func WithRemote(r Remote) Option {
	return func(e *Engine) {
		e.remote = r
	}
}

// WithNotifier shares a notifier between engines. By default each engine
// creates its own.
func WithNotifier(n *notify.Notifier[ChangeEvent]) Option {
	return func(e *Engine) {
		e.notifier = n
	}
}

// WithIDGenerator sets the entry ID generator (default UUIDv7Generator).
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithTimeSource sets the wall clock (default SystemTime).
func WithTimeSource(ts TimeSource) Option {
	return func(e *Engine) {
		e.clock = ts
	}
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithOwner sets the initial owner identity.
func WithOwner(owner string) Option {
	return func(e *Engine) {
		e.owner = owner
	}
}

// WithBackgroundPush moves remote pushes onto a single FIFO worker
// goroutine. Mutations then return without waiting for the remote leg.
// Call Close to drain the worker.
func WithBackgroundPush() Option {
	return func(e *Engine) {
		e.background = true
	}
}

// New creates an engine for kind whose snapshot lives under key in local.
func New(kind collection.Kind, key string, local localstore.Store, opts ...Option) *Engine {
	e := &Engine{
		kind:   kind,
		key:    key,
		local:  local,
		ids:    UUIDv7Generator{},
		clock:  SystemTime{},
		seq:    &Sequence{},
		logger: slog.Default(),
		outbox: newOutbox(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.local == nil {
		e.local = localstore.Unavailable{}
	}
	if e.notifier == nil {
		e.notifier = notify.New[ChangeEvent](notify.WithLogger(e.logger))
	}
	e.logger = e.logger.With("kind", kind.String(), "key", key)
	if e.background && e.remote != nil {
		e.pusher = startPusher(e.remote, e.logger)
	}

	return e
}

// Kind returns the collection kind.
func (e *Engine) Kind() collection.Kind { return e.kind }

// Key returns the local storage key.
func (e *Engine) Key() string { return e.key }

// Notifier returns the notifier change events are published on.
func (e *Engine) Notifier() *notify.Notifier[ChangeEvent] { return e.notifier }

// Subscribe registers h for events of change type t on this engine's kind.
func (e *Engine) Subscribe(t ChangeType, h notify.Handler[ChangeEvent]) notify.Token {
	return e.notifier.Subscribe(Topic(e.kind, t), h)
}

// SetOwner sets the owner identity. It does not fetch remote state; the
// next Get, Pull or Push uses it.
func (e *Engine) SetOwner(owner string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.owner = owner
}

// ClearOwner removes the owner identity, disabling remote behavior.
func (e *Engine) ClearOwner() {
	e.SetOwner("")
}

// Owner returns the owner identity and whether one is set.
func (e *Engine) Owner() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.owner, e.owner != ""
}

// remoteOwner returns the owner when remote behavior is enabled.
func (e *Engine) remoteOwner() (string, bool) {
	owner, ok := e.Owner()
	return owner, ok && e.remote != nil
}

// GetLocal returns the current collection from the local store without
// touching the remote backend.
func (e *Engine) GetLocal() collection.Collection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.readLocked().Clone()
}

// Get returns the current collection. When an owner is configured the remote
// snapshot is fetched first and, on success, replaces local state. Any
// remote failure falls back silently (after logging) to local state.
func (e *Engine) Get(ctx context.Context) collection.Collection {
	owner, ok := e.remoteOwner()
	if !ok {
		return e.GetLocal()
	}
	c, err := e.pull(ctx, owner)
	if err != nil {
		return e.GetLocal()
	}
	return c
}

// Pull forces the remote snapshot to replace local state. Unlike Get, the
// remote error is returned, alongside the local collection that still
// stands. With no owner configured it returns local state and nil.
func (e *Engine) Pull(ctx context.Context) (collection.Collection, error) {
	owner, ok := e.remoteOwner()
	if !ok {
		return e.GetLocal(), nil
	}
	c, err := e.pull(ctx, owner)
	if err != nil {
		return e.GetLocal(), err
	}
	return c, nil
}

// Push writes the current local collection to the remote backend and waits
// for the result. With no owner configured it returns nil.
func (e *Engine) Push(ctx context.Context) error {
	owner, ok := e.remoteOwner()
	if !ok {
		return nil
	}
	c := e.GetLocal()
	if err := e.remote.Push(ctx, owner, c); err != nil {
		e.logRemote("push", owner, err)
		return err
	}
	return nil
}

// Mutate applies op to a freshly read copy of the collection and commits
// it. It returns the resulting collection and whether anything changed.
// An op that panics is logged and leaves the collection unchanged.
func (e *Engine) Mutate(ctx context.Context, mode Mode, op Op) (collection.Collection, bool) {
	result, owner, changed := e.apply(op)
	if !changed {
		return result, false
	}

	if mode == Synced && owner != "" && e.remote != nil {
		e.pushAfterMutation(ctx, owner, result.Clone())
	}

	e.outbox.drain(e.notifier)
	return result, true
}

// apply runs op inside the critical section: read, mutate a copy,
// recompute, commit and enqueue the event.
func (e *Engine) apply(op Op) (result collection.Collection, owner string, changed bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cur := e.readLocked()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("mutation panicked; collection unchanged", "panic", r)
			result, owner, changed = cur.Clone(), "", false
		}
	}()

	work := cur.Clone()
	now := e.clock.Now()

	change, ok := op(&Tx{Collection: &work, Now: now, ids: e.ids})
	if !ok {
		return cur.Clone(), "", false
	}

	work.Recompute()
	work.Touch(now)
	e.commitLocked(work)
	e.enqueueLocked(change, work)

	return work.Clone(), e.owner, true
}

// Close drains the background push worker, if any. Pushes still queued when
// ctx ends are dropped.
func (e *Engine) Close(ctx context.Context) error {
	if e.pusher == nil {
		return nil
	}
	return e.pusher.close(ctx)
}

// pull fetches the owner's snapshot and installs it as local state.
func (e *Engine) pull(ctx context.Context, owner string) (collection.Collection, error) {
	fetched, err := e.remote.Fetch(ctx, owner, e.kind)
	if err != nil {
		e.logRemote("fetch", owner, err)
		return collection.Collection{}, err
	}

	e.mu.Lock()
	cur := e.readLocked()
	fetched.Kind = e.kind
	fetched.AssignIDs(cur, e.ids.NewID)
	fetched.MergeTimestamps(cur.UpdatedAt)
	changed := !sameEntries(cur.Entries, fetched.Entries)
	e.commitLocked(fetched)
	if changed {
		e.enqueueLocked(Change{Type: ChangeSynced}, fetched)
	}
	result := fetched.Clone()
	e.mu.Unlock()

	e.outbox.drain(e.notifier)
	return result, nil
}

func (e *Engine) pushAfterMutation(ctx context.Context, owner string, c collection.Collection) {
	if e.pusher != nil {
		if !e.pusher.enqueue(owner, c) {
			e.logger.Warn("remote push dropped; engine closed", "owner", owner)
		}
		return
	}
	if err := e.remote.Push(ctx, owner, c); err != nil {
		e.logRemote("push", owner, err)
	}
}

// readLocked returns the freshest local value: the local store snapshot if
// readable, otherwise the last in-memory value (an empty collection before
// first use). Must hold e.mu.
func (e *Engine) readLocked() collection.Collection {
	if data, ok := e.local.Read(e.key); ok {
		c, err := collection.Unmarshal(data, e.kind)
		if err == nil {
			if e.hydrated {
				c.MergeTimestamps(e.current.UpdatedAt)
			}
			e.current = c
			e.hydrated = true
			return c
		}
		e.logger.Warn("local snapshot unreadable; using in-memory state", "err", err)
	}

	if !e.hydrated {
		e.current = collection.New(e.kind)
		e.hydrated = true
	}
	return e.current
}

// commitLocked installs c as current state and persists it. A failed write
// leaves the in-memory value updated. Must hold e.mu.
func (e *Engine) commitLocked(c collection.Collection) {
	e.current = c
	data, err := collection.Marshal(c)
	if err != nil {
		e.logger.Error("encode snapshot failed; continuing in memory", "err", err)
		return
	}
	if !e.local.Write(e.key, data) {
		e.logger.Warn("local persistence unavailable; continuing in memory")
	}
}

// enqueueLocked stamps and queues the event for change. Must hold e.mu so
// outbox order equals commit order.
func (e *Engine) enqueueLocked(change Change, c collection.Collection) {
	ev := ChangeEvent{
		Topic:      Topic(e.kind, change.Type),
		Type:       change.Type,
		Kind:       e.kind,
		Seq:        e.seq.Next(),
		Entry:      change.Entry,
		Collection: c.Clone(),
	}
	if change.Entry != nil {
		ev.EntryID = change.Entry.ID
	}
	e.outbox.enqueue(ev)
}

func (e *Engine) logRemote(op, owner string, err error) {
	e.logger.Warn("remote "+op+" failed; using local state",
		"owner", owner,
		"code", string(remote.CodeOf(err)),
		"err", err,
	)
}

// sameEntries compares entry sequences by their serialized form, which
// ignores in-memory-only differences such as time zone pointers.
func sameEntries(a, b []collection.Entry) bool {
	if len(a) != len(b) {
		return false
	}
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ja, jb)
}

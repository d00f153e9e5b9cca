package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/text/language"

	"github.com/roach88/cartsync/internal/cart"
	"github.com/roach88/cartsync/internal/collection"
	"github.com/roach88/cartsync/internal/engine"
	"github.com/roach88/cartsync/internal/localstore"
	"github.com/roach88/cartsync/internal/notify"
	"github.com/roach88/cartsync/internal/remote"
	"github.com/roach88/cartsync/internal/testutil"
	"github.com/roach88/cartsync/internal/wishlist"
)

// errRemoteDown is what the remote returns between remote.fail and
// remote.recover.
var errRemoteDown = errors.New("remote unreachable")

// Harness executes one scenario. Devices share the remote record store, the
// entry ID generator and the clock, so traces are deterministic.
type Harness struct {
	scenario *Scenario
	ids      *testutil.SequentialIDs
	clock    *testutil.StepClock
	records  *remote.MemoryRecords
	backend  *remote.Backend
	locale   language.Tag
	logger   *slog.Logger

	devices map[string]*device
	order   []string

	mu     sync.Mutex
	result *Result
}

type device struct {
	name     string
	local    *localstore.Memory
	cart     *cart.Cart
	wishlist *wishlist.Wishlist
}

// Option configures Run.
type Option func(*Harness)

// WithLogger routes engine logs to l (default: discarded).
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against fresh in-memory stores. An error is returned
// only when the scenario cannot be executed at all; failed steps and
// assertions are reported in Result.Errors.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{
		scenario: scenario,
		ids:      testutil.NewSequentialIDs("entry"),
		clock:    testutil.NewStepClock(),
		locale:   language.Und,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		devices:  make(map[string]*device),
		result:   NewResult(),
	}
	for _, opt := range opts {
		opt(h)
	}

	if scenario.Locale != "" {
		tag, err := language.Parse(scenario.Locale)
		if err != nil {
			return nil, fmt.Errorf("invalid locale %q: %w", scenario.Locale, err)
		}
		h.locale = tag
	}

	if scenario.Owner != "" {
		h.records = remote.NewMemoryRecords()
		h.backend = remote.NewBackend(h.records, remote.WithTimeout(0))
	}

	ctx := context.Background()
	h.device(DefaultDevice)

	for i, step := range scenario.Steps {
		if err := h.execute(ctx, step); err != nil {
			h.result.AddError(fmt.Sprintf("steps[%d] %s: %v", i, step.Op, err))
		}
	}

	for _, name := range h.order {
		d := h.devices[name]
		if err := errors.Join(d.cart.Close(ctx), d.wishlist.Close(ctx)); err != nil {
			return nil, fmt.Errorf("close device %s: %w", name, err)
		}
	}

	h.captureState()

	for _, errMsg := range EvaluateAssertions(h.result, scenario.Assertions) {
		h.result.AddError(errMsg)
	}

	return h.result, nil
}

// device returns the named device, creating it on first use.
func (h *Harness) device(name string) *device {
	if d, ok := h.devices[name]; ok {
		return d
	}

	n := notify.New[engine.ChangeEvent](notify.WithLogger(h.logger))
	n.SubscribeAll(func(_ string, ev engine.ChangeEvent) {
		h.record(name, ev)
	})

	opts := []engine.Option{
		engine.WithNotifier(n),
		engine.WithIDGenerator(h.ids),
		engine.WithTimeSource(h.clock),
		engine.WithLogger(h.logger.With("device", name)),
	}
	if h.backend != nil {
		opts = append(opts, engine.WithRemote(h.backend), engine.WithOwner(h.scenario.Owner))
	}

	local := localstore.NewMemory()
	ns := localstore.Namespace{Prefix: name}
	d := &device{
		name:     name,
		local:    local,
		cart:     cart.New(local, ns.Key(collection.KindCart), opts...),
		wishlist: wishlist.New(local, ns.Key(collection.KindWishlist), opts...),
	}
	d.wishlist.SetLocale(h.locale)

	h.devices[name] = d
	h.order = append(h.order, name)
	return d
}

func (h *Harness) record(device string, ev engine.ChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	seq := int64(len(h.result.Trace) + 1)
	h.result.Trace = append(h.result.Trace, newTraceEvent(seq, device, ev))
}

// execute runs one step. The returned error describes an unexpected pull or
// push outcome; mutations themselves never fail.
func (h *Harness) execute(ctx context.Context, s Step) error {
	d := h.device(s.DeviceName())

	switch s.Op {
	case OpCartAdd:
		qty := 1
		if s.Qty != nil {
			qty = *s.Qty
		}
		if s.Local {
			d.cart.AddLocal(*s.Item, qty)
		} else {
			d.cart.Add(ctx, *s.Item, qty)
		}
	case OpCartRemove:
		if s.Local {
			d.cart.RemoveLocal(s.Entry)
		} else {
			d.cart.Remove(ctx, s.Entry)
		}
	case OpCartRemoveItem:
		key := collection.KeyFor(s.Product, s.Variant)
		if s.Local {
			d.cart.RemoveItemLocal(key)
		} else {
			d.cart.RemoveItem(ctx, key)
		}
	case OpCartUpdate:
		if s.Local {
			d.cart.UpdateQuantityLocal(s.Entry, *s.Qty)
		} else {
			d.cart.UpdateQuantity(ctx, s.Entry, *s.Qty)
		}
	case OpCartClear:
		if s.Local {
			d.cart.ClearLocal()
		} else {
			d.cart.Clear(ctx)
		}
	case OpCartGet:
		d.cart.Get(ctx)
	case OpCartPull:
		_, err := d.cart.Pull(ctx)
		return checkSyncError(s, err)
	case OpCartPush:
		return checkSyncError(s, d.cart.Push(ctx))

	case OpWishlistAdd:
		if s.Local {
			d.wishlist.AddLocal(*s.Item)
		} else {
			d.wishlist.Add(ctx, *s.Item)
		}
	case OpWishlistRemove:
		if s.Local {
			d.wishlist.RemoveLocal(s.Entry)
		} else {
			d.wishlist.Remove(ctx, s.Entry)
		}
	case OpWishlistRemoveProduct:
		key := collection.KeyFor(s.Product, s.Variant)
		if s.Local {
			d.wishlist.RemoveProductLocal(key)
		} else {
			d.wishlist.RemoveProduct(ctx, key)
		}
	case OpWishlistToggle:
		if s.Local {
			d.wishlist.ToggleLocal(*s.Item)
		} else {
			d.wishlist.Toggle(ctx, *s.Item)
		}
	case OpWishlistSort:
		less := h.sortLess(s)
		if s.Local {
			d.wishlist.SortByLocal(less)
		} else {
			d.wishlist.SortBy(ctx, less)
		}
	case OpWishlistClear:
		if s.Local {
			d.wishlist.ClearLocal()
		} else {
			d.wishlist.Clear(ctx)
		}
	case OpWishlistGet:
		d.wishlist.Get(ctx)
	case OpWishlistPull:
		_, err := d.wishlist.Pull(ctx)
		return checkSyncError(s, err)
	case OpWishlistPush:
		return checkSyncError(s, d.wishlist.Push(ctx))

	case OpRemoteFail:
		h.records.FailFetches(errRemoteDown)
		h.records.FailPuts(errRemoteDown)
	case OpRemoteRecover:
		h.records.FailFetches(nil)
		h.records.FailPuts(nil)

	default:
		return fmt.Errorf("unknown op %q", s.Op)
	}
	return nil
}

func (h *Harness) sortLess(s Step) collection.Less {
	switch s.By {
	case "price":
		return collection.ByPrice(!s.Desc)
	case "recency":
		return collection.ByRecency(s.Desc)
	default:
		return collection.ByName(h.locale, !s.Desc)
	}
}

func checkSyncError(s Step, err error) error {
	switch {
	case err != nil && !s.ExpectError:
		return fmt.Errorf("unexpected error: %w", err)
	case err == nil && s.ExpectError:
		return errors.New("expected an error, got none")
	}
	return nil
}

// captureState records every device's local collections and, with an
// owner, the remote snapshots.
func (h *Harness) captureState() {
	for _, name := range h.order {
		d := h.devices[name]
		h.result.State[StateKey(name, collection.KindCart)] = snapshotOf(d.cart.GetLocal())
		h.result.State[StateKey(name, collection.KindWishlist)] = snapshotOf(d.wishlist.GetLocal())
	}

	if h.records == nil {
		return
	}
	for _, kind := range []collection.Kind{collection.KindCart, collection.KindWishlist} {
		h.result.State[StateKey(RemoteDevice, kind)] = h.remoteSnapshot(kind)
	}
}

func (h *Harness) remoteSnapshot(kind collection.Kind) StateSnapshot {
	payload, ok := h.records.Payload(remote.RecordKey{Owner: h.scenario.Owner, Kind: kind})
	if !ok {
		return StateSnapshot{Missing: true, Items: []string{}, Quantities: []int{}}
	}
	c, err := remote.DecodeSnapshot(payload, kind, time.Time{})
	if err != nil {
		h.result.AddError(fmt.Sprintf("remote %s snapshot unreadable: %v", kind, err))
		return StateSnapshot{Items: []string{}, Quantities: []int{}}
	}
	return snapshotOf(c)
}

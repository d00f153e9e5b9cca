// Package app assembles a cart and a wishlist from a Config: the local
// snapshot store, the remote record store and backend, and a shared change
// notifier.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/text/language"

	"github.com/roach88/cartsync/internal/cart"
	"github.com/roach88/cartsync/internal/collection"
	"github.com/roach88/cartsync/internal/config"
	"github.com/roach88/cartsync/internal/engine"
	"github.com/roach88/cartsync/internal/localstore"
	"github.com/roach88/cartsync/internal/notify"
	"github.com/roach88/cartsync/internal/remote"
	"github.com/roach88/cartsync/internal/remote/firestorerecords"
	"github.com/roach88/cartsync/internal/remote/httprecords"
	"github.com/roach88/cartsync/internal/remote/sqlrecords"
	"github.com/roach88/cartsync/internal/wishlist"
)

// App holds the assembled components. Close must be called when done.
type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Notifier *notify.Notifier[engine.ChangeEvent]
	Cart     *cart.Cart
	Wishlist *wishlist.Wishlist

	// Local is the snapshot store in use.
	Local localstore.Store

	// Records is the remote record store, nil when the backend is "none".
	Records remote.RecordStore

	closers []func() error
}

// Option configures New.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	records    remote.RecordStore
	engineOpts []engine.Option
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithRecordStore overrides the record store chosen by the configured
// backend.
func WithRecordStore(rs remote.RecordStore) Option {
	return func(o *options) {
		o.records = rs
	}
}

// WithEngineOptions appends options applied to both engines.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(o *options) {
		o.engineOpts = append(o.engineOpts, opts...)
	}
}

// New builds an App from cfg. A local store that cannot be opened is not an
// error: the engines then keep state in memory.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{
		Config:   cfg,
		Logger:   o.logger,
		Notifier: notify.New[engine.ChangeEvent](notify.WithLogger(o.logger)),
	}

	a.Local = a.openLocal()

	records := o.records
	if records == nil {
		var err error
		records, err = a.openRecords(ctx, cfg.Remote)
		if err != nil {
			a.closeAll()
			return nil, err
		}
	}
	a.Records = records

	engineOpts := []engine.Option{
		engine.WithLogger(o.logger),
		engine.WithNotifier(a.Notifier),
	}
	if records != nil {
		backend := remote.NewBackend(records, remote.WithTimeout(cfg.Remote.TimeoutDuration()))
		engineOpts = append(engineOpts, engine.WithRemote(backend))
		if cfg.Remote.Background {
			engineOpts = append(engineOpts, engine.WithBackgroundPush())
		}
	}
	engineOpts = append(engineOpts, o.engineOpts...)

	ns := localstore.Namespace{Prefix: cfg.Tenant}
	a.Cart = cart.New(a.Local, ns.Key(collection.KindCart), engineOpts...)
	a.Wishlist = wishlist.New(a.Local, ns.Key(collection.KindWishlist), engineOpts...)
	a.Wishlist.SetLocale(a.locale())

	return a, nil
}

func (a *App) openLocal() localstore.Store {
	if a.Config.Local.Disabled {
		return localstore.NewMemory()
	}
	s, err := localstore.OpenSQLite(a.Config.Local.Path, localstore.WithLogger(a.Logger))
	if err != nil {
		a.Logger.Warn("local store unavailable; state will not persist",
			"path", a.Config.Local.Path,
			"err", err,
		)
		return localstore.Unavailable{}
	}
	a.closers = append(a.closers, s.Close)
	return s
}

func (a *App) openRecords(ctx context.Context, rc config.RemoteConfig) (remote.RecordStore, error) {
	switch rc.Backend {
	case config.BackendNone, "":
		return nil, nil

	case config.BackendMemory:
		return remote.NewMemoryRecords(), nil

	case config.BackendFirestore:
		client, err := firestorerecords.Dial(ctx, rc.Firestore.Project, rc.Firestore.Credentials)
		if err != nil {
			return nil, err
		}
		s := firestorerecords.New(client, rc.Firestore.Collection)
		a.closers = append(a.closers, s.Close)
		return s, nil

	case config.BackendPostgres:
		s, err := sqlrecords.Open(rc.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		if err := s.Migrate(ctx); err != nil {
			return nil, err
		}
		return s, nil

	case config.BackendHTTP:
		hc := &http.Client{Timeout: rc.TimeoutDuration()}
		return httprecords.New(rc.HTTP.BaseURL, httprecords.WithHTTPClient(hc)), nil

	default:
		return nil, fmt.Errorf("unknown remote backend %q", rc.Backend)
	}
}

func (a *App) locale() language.Tag {
	tag, err := language.Parse(a.Config.Locale)
	if err != nil {
		a.Logger.Warn("invalid locale; using root collation", "locale", a.Config.Locale, "err", err)
		return language.Und
	}
	return tag
}

// SetOwner sets the owner identity on both engines.
func (a *App) SetOwner(owner string) {
	a.Cart.SetOwner(owner)
	a.Wishlist.SetOwner(owner)
}

// Close drains background pushes and releases stores.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Cart != nil {
		errs = append(errs, a.Cart.Close(ctx))
	}
	if a.Wishlist != nil {
		errs = append(errs, a.Wishlist.Close(ctx))
	}
	errs = append(errs, a.closeAll())
	return errors.Join(errs...)
}

func (a *App) closeAll() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

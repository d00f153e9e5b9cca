package app

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/roach88/cartsync/internal/collection"
	"github.com/roach88/cartsync/internal/config"
	"github.com/roach88/cartsync/internal/engine"
	"github.com/roach88/cartsync/internal/localstore"
	"github.com/roach88/cartsync/internal/recordserver"
	"github.com/roach88/cartsync/internal/remote"
	"github.com/roach88/cartsync/internal/testutil"
)

var shirt = collection.Product{ID: "shirt", Name: "Shirt", Price: 1000}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Tenant = "acme"
	cfg.Local.Path = filepath.Join(t.TempDir(), "cartsync.db")
	return cfg
}

func newApp(t *testing.T, cfg config.Config, opts ...Option) *App {
	t.Helper()
	a, err := New(context.Background(), cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close(context.Background()) })
	return a
}

func TestNew_LocalOnly(t *testing.T) {
	cfg := testConfig(t)
	a := newApp(t, cfg)

	assert.Nil(t, a.Records)
	assert.IsType(t, &localstore.SQLite{}, a.Local)
	assert.Equal(t, "acme:cart", a.Cart.Engine().Key())
	assert.Equal(t, "acme:wishlist", a.Wishlist.Engine().Key())
	assert.Equal(t, language.Und, a.Wishlist.Locale())
}

func TestNew_PersistsAcrossRestarts(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	a1, err := New(ctx, cfg)
	require.NoError(t, err)
	a1.Cart.Add(ctx, shirt, 2)
	a1.Wishlist.Add(ctx, shirt)
	require.NoError(t, a1.Close(ctx))

	a2 := newApp(t, cfg)
	assert.Equal(t, 2, a2.Cart.CountLocal())
	assert.True(t, a2.Wishlist.HasLocal("shirt"))
}

func TestNew_TenantsAreIsolated(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	a1, err := New(ctx, cfg)
	require.NoError(t, err)
	a1.Cart.Add(ctx, shirt, 1)
	require.NoError(t, a1.Close(ctx))

	cfg.Tenant = "globex"
	a2 := newApp(t, cfg)
	assert.Zero(t, a2.Cart.CountLocal())
}

func TestNew_LocalDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Local.Disabled = true

	a := newApp(t, cfg)
	assert.IsType(t, &localstore.Memory{}, a.Local)
}

func TestNew_UnopenableLocalStoreDegrades(t *testing.T) {
	var logs bytes.Buffer
	cfg := testConfig(t)
	cfg.Local.Path = filepath.Join(t.TempDir(), "missing-dir", "nested", "cartsync.db")

	a := newApp(t, cfg, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	assert.IsType(t, localstore.Unavailable{}, a.Local)
	got := a.Cart.AddLocal(shirt, 1)
	assert.Equal(t, 1, got.Count, "engines keep working in memory")
	assert.Contains(t, logs.String(), "local store unavailable")
}

func TestNew_MemoryBackendSharedNotifier(t *testing.T) {
	cfg := testConfig(t)
	cfg.Remote.Backend = config.BackendMemory
	ctx := context.Background()

	a := newApp(t, cfg, WithEngineOptions(
		engine.WithIDGenerator(testutil.NewSequentialIDs("e")),
		engine.WithTimeSource(testutil.NewStepClock()),
	))
	require.IsType(t, &remote.MemoryRecords{}, a.Records)

	var topics []string
	a.Notifier.SubscribeAll(func(topic string, _ engine.ChangeEvent) { topics = append(topics, topic) })

	a.SetOwner("u1")
	a.Cart.Add(ctx, shirt, 1)
	a.Wishlist.Add(ctx, shirt)

	assert.Equal(t, []string{"cart:item:added", "wishlist:item:added"}, topics)
	records := a.Records.(*remote.MemoryRecords)
	assert.Equal(t, 2, records.Puts())
}

func TestNew_HTTPBackend(t *testing.T) {
	records := remote.NewMemoryRecords()
	srv := httptest.NewServer(recordserver.New(records).Handler())
	defer srv.Close()

	cfg := testConfig(t)
	cfg.Remote.Backend = config.BackendHTTP
	cfg.Remote.HTTP.BaseURL = srv.URL
	ctx := context.Background()

	a := newApp(t, cfg)
	a.SetOwner("u1")
	a.Cart.Add(ctx, shirt, 3)

	payload, ok := records.Payload(remote.RecordKey{Owner: "u1", Kind: collection.KindCart})
	require.True(t, ok)
	c, err := collection.Unmarshal(payload, collection.KindCart)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Count)
}

func TestNew_BackgroundPushDrainsOnClose(t *testing.T) {
	records := remote.NewMemoryRecords()
	cfg := testConfig(t)
	cfg.Remote.Background = true
	ctx := context.Background()

	a, err := New(ctx, cfg, WithRecordStore(records))
	require.NoError(t, err)
	a.SetOwner("u1")
	a.Cart.Add(ctx, shirt, 1)
	a.Wishlist.Add(ctx, shirt)
	require.NoError(t, a.Close(ctx))

	assert.Equal(t, 2, records.Puts())
}

func TestNew_Locale(t *testing.T) {
	cfg := testConfig(t)
	cfg.Locale = "sv"
	assert.Equal(t, language.Swedish, newApp(t, cfg).Wishlist.Locale())

	cfg.Locale = "not a locale!"
	assert.Equal(t, language.Und, newApp(t, cfg).Wishlist.Locale())
}

func TestNew_UnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Remote.Backend = "carrier-pigeon"

	_, err := New(context.Background(), cfg)
	assert.ErrorContains(t, err, "unknown remote backend")
}

package localstore

import (
	"log/slog"
	"strings"

	"github.com/roach88/cartsync/internal/collection"
)

// Store is a key-scoped snapshot store. See the package documentation for
// the failure contract.
type Store interface {
	Read(key string) ([]byte, bool)
	Write(key string, snapshot []byte) bool
	Erase(key string) bool
}

// Namespace scopes keys by a tenant or merchant prefix.
type Namespace struct {
	Prefix string
}

// Key returns the storage key for a collection kind, e.g. "acme:cart".
// An empty prefix yields the bare kind name.
func (n Namespace) Key(kind collection.Kind) string {
	p := strings.TrimSpace(n.Prefix)
	if p == "" {
		return kind.String()
	}
	return p + ":" + kind.String()
}

// Option configures a store.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used to report swallowed failures.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

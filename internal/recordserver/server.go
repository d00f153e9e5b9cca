// Package recordserver exposes a remote.RecordStore over HTTP.
//
// It is the development counterpart of a hosted commerce record API: the
// CLI can point an HTTP-backed engine at it to exercise remote sync without
// cloud credentials.
//
// Routes:
//
//	GET  /records/:owner/:kind   payload as body, UpdatedAt in HeaderUpdatedAt
//	PUT  /records/:owner/:kind   body is the payload, optional HeaderUpdatedAt
//	GET  /healthz
package recordserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/roach88/cartsync/internal/collection"
	"github.com/roach88/cartsync/internal/remote"
)

// HeaderUpdatedAt carries a record's UpdatedAt in RFC 3339 (nanosecond)
// form on both GET responses and PUT requests.
const HeaderUpdatedAt = "X-Record-Updated-At"

// MaxPayload bounds the size of a PUT body.
const MaxPayload = "1M"

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RecordPath returns the route path for key, with the owner path-escaped.
func RecordPath(key remote.RecordKey) string {
	return "/records/" + url.PathEscape(key.Owner) + "/" + key.Kind.String()
}

// Server serves records from a RecordStore.
type Server struct {
	echo    *echo.Echo
	records remote.RecordStore
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithClock sets the time used for records stored without HeaderUpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// New builds a server over records.
func New(records remote.RecordStore, opts ...Option) *Server {
	s := &Server{
		records: records,
		logger:  slog.Default(),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status}
			if v.Error != nil {
				attrs = append(attrs, "err", v.Error)
			}
			s.logger.Debug("record request", attrs...)
			return nil
		},
	}))

	e.GET("/healthz", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})
	g := e.Group("/records")
	g.GET("/:owner/:kind", s.getRecord)
	g.PUT("/:owner/:kind", s.putRecord, middleware.BodyLimit(MaxPayload))

	s.echo = e
	return s
}

// Handler returns the HTTP handler, for use with httptest or a custom
// http.Server.
func (s *Server) Handler() http.Handler { return s.echo }

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("record server listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) recordKey(c echo.Context) (remote.RecordKey, error) {
	owner, err := url.PathUnescape(c.Param("owner"))
	if err != nil || owner == "" {
		return remote.RecordKey{}, errors.New("invalid owner")
	}
	kind, err := collection.ParseKind(c.Param("kind"))
	if err != nil {
		return remote.RecordKey{}, err
	}
	return remote.RecordKey{Owner: owner, Kind: kind}, nil
}

func (s *Server) getRecord(c echo.Context) error {
	key, err := s.recordKey(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	rec, err := s.records.GetRecord(c.Request().Context(), key)
	if err != nil {
		return s.writeError(c, err)
	}

	if !rec.UpdatedAt.IsZero() {
		c.Response().Header().Set(HeaderUpdatedAt, rec.UpdatedAt.UTC().Format(time.RFC3339Nano))
	}
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, rec.Payload)
}

func (s *Server) putRecord(c echo.Context) error {
	key, err := s.recordKey(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return err
	}
	if len(payload) == 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "empty payload"})
	}

	updatedAt := s.now()
	if v := c.Request().Header.Get(HeaderUpdatedAt); v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + HeaderUpdatedAt})
		}
		updatedAt = t.UTC()
	}

	rec := remote.Record{Key: key, Payload: payload, UpdatedAt: updatedAt}
	if err := s.records.PutRecord(c.Request().Context(), rec); err != nil {
		return s.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) writeError(c echo.Context, err error) error {
	switch {
	case remote.IsNotFound(err):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "record not found"})
	case remote.CodeOf(err) == remote.CodeRejected:
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
	default:
		s.logger.Warn("record store failed", "err", err)
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "record store unavailable"})
	}
}

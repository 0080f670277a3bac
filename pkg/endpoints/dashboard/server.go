// Package dashboard serves the driver statistics as JSON over HTTP.
package dashboard

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/mpapenbr/f1-driverstats-go/log"
	"github.com/mpapenbr/f1-driverstats-go/pkg/snapshot"
	"github.com/mpapenbr/f1-driverstats-go/pkg/stats"
	"github.com/mpapenbr/f1-driverstats-go/pkg/utils/cache"
	"github.com/mpapenbr/f1-driverstats-go/pkg/utils/cache/loadercache"
)

var (
	tracer = otel.Tracer("dashboard-endpoints")
	meter  = otel.Meter("dashboard-endpoints")
)

type (
	// dashboardKey pins the snapshot the request started with
	dashboardKey struct {
		snap   *snapshot.Snapshot
		driver string
		year   int
	}
	// ReloadFunc replaces the current snapshot, see snapshot.Holder.Reload
	ReloadFunc func(ctx context.Context) (*snapshot.Snapshot, error)
	Option     func(*Server)
	Server     struct {
		holder          *snapshot.Holder
		reload          ReloadFunc
		excluded        []string
		adminToken      string
		cacheExpiration time.Duration
		cache           cache.Cache[dashboardKey, stats.Dashboard]
		requests        metric.Int64Counter
		l               *log.Logger
	}
)

func WithExcludedDrivers(names ...string) Option {
	return func(s *Server) {
		s.excluded = names
	}
}

// WithAdminToken enables the admin endpoints. Without a token they are disabled.
func WithAdminToken(token string) Option {
	return func(s *Server) {
		s.adminToken = token
	}
}

func WithReloadFunc(f ReloadFunc) Option {
	return func(s *Server) {
		s.reload = f
	}
}

func WithCacheExpiration(d time.Duration) Option {
	return func(s *Server) {
		s.cacheExpiration = d
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		s.l = l
	}
}

func NewServer(holder *snapshot.Holder, opts ...Option) *Server {
	ret := &Server{
		holder:          holder,
		reload:          holder.Reload,
		cacheExpiration: 5 * time.Minute,
		l:               log.Default().Named("http.dashboard"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.cache = loadercache.New(
		loadercache.WithLoader[dashboardKey, stats.Dashboard](ret.loadDashboard),
		loadercache.WithExpiration[dashboardKey, stats.Dashboard](ret.cacheExpiration),
		loadercache.WithLogger[dashboardKey, stats.Dashboard](ret.l.Named("cache")),
	)
	var err error
	if ret.requests, err = meter.Int64Counter("f1ds.http.requests",
		metric.WithDescription("number of handled http requests")); err != nil {
		ret.l.Warn("could not create request counter", log.ErrorField(err))
		ret.requests = noop.Int64Counter{}
	}
	holder.OnSwap(func(s *snapshot.Snapshot) {
		ret.cache.InvalidateAll(context.Background())
	})
	return ret
}

// Handler returns the routes wrapped with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.health)
	mux.HandleFunc("GET /api/v1/options", s.withSnapshot(s.options))
	mux.HandleFunc("GET /api/v1/drivers/{driver}/profile", s.withSnapshot(s.profile))
	mux.HandleFunc("GET /api/v1/drivers/{driver}/career", s.withSnapshot(s.career))
	mux.HandleFunc("GET /api/v1/drivers/{driver}/circuits", s.withSnapshot(s.circuits))
	mux.HandleFunc("GET /api/v1/drivers/{driver}/seasons/{year}", s.withSnapshot(s.season))
	mux.HandleFunc("GET /api/v1/standings/{year}", s.withSnapshot(s.standings))
	mux.HandleFunc("GET /api/v1/dashboard", s.withSnapshot(s.dashboard))
	mux.Handle("POST /api/v1/admin/reload", s.requireAdmin(http.HandlerFunc(s.adminReload)))
	return s.requestLogger(mux)
}

func (s *Server) loadDashboard(ctx context.Context, key dashboardKey) (*stats.Dashboard, error) {
	_, span := tracer.Start(ctx, "compute dashboard")
	span.SetAttributes(
		attribute.String("driver", key.driver),
		attribute.Int("year", key.year),
		attribute.String("snapshot", key.snap.ID.String()))
	defer span.End()
	d := key.snap.Stats.Dashboard(key.driver, key.year)
	return &d, nil
}

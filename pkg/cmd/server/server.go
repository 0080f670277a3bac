package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // by design
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	otlpruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mpapenbr/f1-driverstats-go/log"
	"github.com/mpapenbr/f1-driverstats-go/pkg/cmd/util"
	"github.com/mpapenbr/f1-driverstats-go/pkg/config"
	"github.com/mpapenbr/f1-driverstats-go/pkg/endpoints/dashboard"
	"github.com/mpapenbr/f1-driverstats-go/pkg/notify"
	"github.com/mpapenbr/f1-driverstats-go/pkg/snapshot"
)

//nolint:funlen // by design
func NewServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "starts the HTTP server providing the driver statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startServer(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&config.ServerAddr,
		"addr",
		"a",
		"localhost:8080",
		"HTTP server listen address")
	cmd.Flags().StringVar(&config.TLSServerAddr,
		"tls-addr",
		"",
		"HTTPS server listen address (requires tls-cert and tls-key)")
	cmd.Flags().StringVar(&config.TLSCertFile,
		"tls-cert",
		"",
		"path to TLS certificate")
	cmd.Flags().StringVar(&config.TLSKeyFile,
		"tls-key",
		"",
		"path to TLS key")
	cmd.Flags().StringVar(&config.TLSCAFile,
		"tls-ca",
		"",
		"path to TLS CA for client certificates")
	cmd.Flags().StringVar(&config.Source,
		"source",
		config.SourceCSV,
		"where to load the dataset from (csv, postgres)")
	cmd.Flags().StringVar(&config.RacesFile,
		"races",
		"data/races.csv",
		"path to the race results csv file")
	cmd.Flags().StringVar(&config.DriversFile,
		"drivers",
		"data/drivers.csv",
		"path to the driver profiles csv file (optional)")
	cmd.Flags().BoolVar(&config.WatchFiles,
		"watch",
		false,
		"reload the dataset when the csv files change")
	cmd.Flags().StringVar(&config.CacheExpiration,
		"cache-ttl",
		"5m",
		"duration a computed dashboard is cached")
	cmd.Flags().StringSliceVar(&config.ExcludedDrivers,
		"exclude-driver",
		[]string{"Jack Aitken", "Nyck De Vries"},
		"drivers not offered for selection")
	cmd.Flags().StringVar(&config.SQLLogLevel,
		"sql-log-level",
		"debug",
		"controls the log level for sql methods")
	cmd.Flags().BoolVar(&config.EnableTelemetry,
		"enable-telemetry",
		false,
		"enables telemetry")
	cmd.Flags().StringVar(&config.TelemetryEndpoint,
		"telemetry-endpoint",
		"localhost:4317",
		"Endpoint that receives open telemetry data (use 'stdout' for console output)")
	cmd.Flags().IntVar(&config.ProfilingPort,
		"profiling-port",
		0,
		"port to use for providing profiling data")
	cmd.Flags().StringVar(&config.AdminToken,
		"admin-token",
		"",
		"admin token value (admin endpoints are disabled if empty)")
	return cmd
}

//nolint:funlen,cyclop // by design
func startServer(cmdCtx context.Context) error {
	logger, sqlLogger, err := util.SetupLogger()
	if err != nil {
		return err
	}
	var telemetry *config.Telemetry
	ctx, stop := signal.NotifyContext(cmdCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = log.AddToContext(ctx, logger)

	log.Debug("Config:",
		log.String("source", config.Source),
		log.String("races", config.RacesFile),
		log.String("drivers", config.DriversFile),
		log.String("db", config.DB),
		log.String("nats", config.NatsURL),
	)

	if config.ProfilingPort > 0 {
		log.Info("Starting profiling server on port", log.Int("port", config.ProfilingPort))
		go func() {
			//nolint:gosec // by design
			err := http.ListenAndServe(
				fmt.Sprintf("localhost:%d", config.ProfilingPort),
				nil)
			if err != nil {
				log.Error("Profiling server stopped", log.ErrorField(err))
			}
		}()
	}

	dbURL := ""
	if config.Source == config.SourcePostgres {
		dbURL = config.DB
	}
	if err := util.WaitForRequiredServices(ctx, dbURL, config.NatsURL); err != nil {
		return err
	}

	if config.EnableTelemetry {
		log.Info("Enabling telemetry")
		if telemetry, err = config.SetupTelemetry(ctx); err != nil {
			log.Warn("Could not setup telemetry", log.ErrorField(err))
		}
		err = otlpruntime.Start(otlpruntime.WithMinimumReadMemStatsInterval(time.Second))
		if err != nil {
			log.Warn("Could not start runtime metrics", log.ErrorField(err))
		}
	}

	holder, err := createHolder(ctx, logger, sqlLogger)
	if err != nil {
		return err
	}
	if _, err := holder.Reload(ctx); err != nil {
		log.Error("initial dataset could not be loaded", log.ErrorField(err))
		return err
	}

	if config.NatsURL != "" {
		conn, err := util.ConnectNats()
		if err != nil {
			return fmt.Errorf("connect to nats: %w", err)
		}
		defer conn.Close()
		sub, err := subscribeReload(ctx, conn, holder)
		if err != nil {
			return err
		}
		defer func() { _ = sub.Unsubscribe() }()
	}

	cacheTTL, err := time.ParseDuration(config.CacheExpiration)
	if err != nil {
		log.Warn("Invalid cache duration. Setting default 5m", log.ErrorField(err))
		cacheTTL = 5 * time.Minute
	}
	srv := dashboard.NewServer(holder,
		dashboard.WithExcludedDrivers(config.ExcludedDrivers...),
		dashboard.WithAdminToken(config.AdminToken),
		dashboard.WithCacheExpiration(cacheTTL),
		dashboard.WithLogger(logger.Named("http")),
	)
	handler := otelhttp.NewHandler(newCORS().Handler(srv.Handler()), "f1ds")

	errChan := make(chan error, 2)
	servers := make([]*http.Server, 0, 2)
	if config.ServerAddr != "" {
		server := &http.Server{
			Addr:              config.ServerAddr,
			Handler:           h2c.NewHandler(handler, &http2.Server{}),
			ReadHeaderTimeout: 10 * time.Second,
		}
		servers = append(servers, server)
		go func() {
			log.Info("Starting HTTP server", log.String("addr", server.Addr))
			errChan <- server.ListenAndServe()
		}()
	}
	if config.TLSServerAddr != "" {
		tlsConfig, err := NewTLSConfigProvider(ctx)
		if err != nil {
			return err
		}
		server := &http.Server{
			Addr:              config.TLSServerAddr,
			Handler:           handler,
			TLSConfig:         tlsConfig,
			ReadHeaderTimeout: 10 * time.Second,
		}
		servers = append(servers, server)
		go func() {
			log.Info("Starting HTTPS server", log.String("addr", server.Addr))
			errChan <- server.ListenAndServeTLS("", "")
		}()
	}
	if len(servers) == 0 {
		return errors.New("no listen address configured")
	}
	log.Info("Server started")
	setupGoRoutinesDump()

	select {
	case <-ctx.Done():
		log.Debug("Got signal", log.ErrorField(context.Cause(ctx)))
	case err = <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", log.ErrorField(err))
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	for _, s := range servers {
		if err := s.Shutdown(shutdownCtx); err != nil {
			log.Warn("could not shutdown server", log.String("addr", s.Addr), log.ErrorField(err))
		}
	}
	if telemetry != nil {
		telemetry.Shutdown()
	}

	log.Info("Server terminated")
	return nil
}

//nolint:whitespace // can't make both editor and linter happy
func createHolder(
	ctx context.Context, logger, sqlLogger *log.Logger,
) (*snapshot.Holder, error) {
	opt := snapshot.WithLogger(logger.Named("snapshot"))
	switch config.Source {
	case config.SourceCSV:
		loader := snapshot.FileLoader{
			RacesPath:   config.RacesFile,
			DriversPath: optionalFile(config.DriversFile),
		}
		holder := snapshot.NewHolder(loader, opt)
		if config.WatchFiles {
			if err := holder.WatchFiles(ctx, loader.Paths()...); err != nil {
				return nil, fmt.Errorf("watch dataset files: %w", err)
			}
		}
		return holder, nil
	case config.SourcePostgres:
		pool, err := util.OpenPool(ctx, sqlLogger)
		if err != nil {
			return nil, err
		}
		context.AfterFunc(ctx, pool.Close)
		return snapshot.NewHolder(snapshot.DBLoader{Pool: pool}, opt), nil
	default:
		return nil, fmt.Errorf("unknown source %q", config.Source)
	}
}

// optionalFile drops the default drivers file if it does not exist.
func optionalFile(path string) string {
	if _, err := os.Stat(path); err != nil {
		log.Warn("driver profiles not available", log.String("file", path))
		return ""
	}
	return path
}

//nolint:whitespace // can't make both editor and linter happy
func subscribeReload(
	ctx context.Context, conn *nats.Conn, holder *snapshot.Holder,
) (*nats.Subscription, error) {
	return notify.New(conn).Subscribe(func(msg notify.DatasetUpdated) {
		log.Info("dataset update received",
			log.String("importId", msg.ImportID),
			log.String("source", msg.Source))
		if _, err := holder.Reload(ctx); err != nil {
			log.Error("reload after dataset update failed", log.ErrorField(err))
		}
	})
}

func setupGoRoutinesDump() {
	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGQUIT)
		buf := make([]byte, 1<<20)
		for {
			<-sigs
			stacklen := runtime.Stack(buf, true)
			fmt.Printf("=== received SIGQUIT ===\n*** goroutine dump...\n%s\n*** end\n",
				buf[:stacklen])
		}
	}()
}

func newCORS() *cors.Cors {
	return cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowOriginFunc: func(origin string) bool {
			// Allow all origins, which effectively disables CORS.
			return true
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"X-Request-Id"},
		// FF caps this value at 24h, and modern Chrome caps it at 2h.
		MaxAge: int(2 * time.Hour / time.Second),
	})
}

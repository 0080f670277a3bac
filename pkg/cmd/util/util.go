// Package util holds the setup steps shared by the commands.
package util

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/pgx-contrib/pgxtrace"

	"github.com/mpapenbr/f1-driverstats-go/log"
	"github.com/mpapenbr/f1-driverstats-go/pkg/config"
	"github.com/mpapenbr/f1-driverstats-go/pkg/db/postgres"
	"github.com/mpapenbr/f1-driverstats-go/pkg/utils"
	"github.com/mpapenbr/f1-driverstats-go/version"
)

func ParseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

// SetupLogger creates the application logger from the log flags and installs it as default.
// The returned sql logger is meant for the query tracer.
func SetupLogger() (logger, sqlLogger *log.Logger, err error) {
	cfg := &log.Config{}
	if config.LogConfig != "" {
		if cfg, err = log.LoadConfig(config.LogConfig); err != nil {
			return nil, nil, err
		}
	}
	if cfg.Level == "" {
		cfg.Level = config.LogLevel
	}
	if cfg.Format == "" {
		cfg.Format = config.LogFormat
	}
	if logger, err = cfg.Build(os.Stderr, log.InfoLevel, "json"); err != nil {
		return nil, nil, err
	}
	sqlCfg := log.Config{Level: config.SQLLogLevel, Format: cfg.Format}
	if sqlLogger, err = sqlCfg.Build(os.Stderr, log.InfoLevel, "json"); err != nil {
		return nil, nil, err
	}
	log.ResetDefault(logger)
	return logger, sqlLogger, nil
}

// WaitForRequiredServices blocks until the configured database and NATS server accept
// connections. An empty address means the service is not used.
func WaitForRequiredServices(ctx context.Context, dbURL, natsURL string) error {
	timeout, err := time.ParseDuration(config.WaitForServices)
	if err != nil {
		log.Warn("Invalid duration value. Setting default 60s", log.ErrorField(err))
		timeout = 60 * time.Second
	}

	addrs := make([]string, 0, 2)
	if addr := utils.ExtractFromDBURL(dbURL); addr != "" {
		addrs = append(addrs, addr)
	}
	if addr := utils.ExtractFromNatsURL(natsURL); addr != "" {
		addrs = append(addrs, addr)
	}
	wg := sync.WaitGroup{}
	errs := make(chan error, len(addrs))
	for _, addr := range addrs {
		wg.Go(func() {
			if err := utils.WaitForTCP(ctx, addr, timeout); err != nil {
				errs <- err
			}
		})
	}
	log.Debug("Waiting for connection checks to return")
	wg.Wait()
	close(errs)
	if err := <-errs; err != nil {
		return err
	}
	log.Debug("Required services are available")
	return nil
}

// OpenPool connects to config.DB. Queries are logged by sqlLogger and, if enabled,
// traced via OpenTelemetry.
func OpenPool(ctx context.Context, sqlLogger *log.Logger) (*pgxpool.Pool, error) {
	tracer := pgxtrace.CompositeQueryTracer{
		postgres.NewMyTracer(sqlLogger, log.DebugLevel),
	}
	if config.EnableTelemetry {
		tracer = append(tracer, postgres.NewOtlpTracer())
	}
	return postgres.InitWithURL(ctx, config.DB, postgres.WithTracer(tracer))
}

// ConnectNats connects to config.NatsURL. The connection reconnects forever.
func ConnectNats() (*nats.Conn, error) {
	l := log.Default().Named("nats")
	return nats.Connect(config.NatsURL,
		nats.Name("f1ds "+version.Version),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				l.Warn("disconnected", log.ErrorField(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			l.Info("reconnected", log.String("url", c.ConnectedUrl()))
		}),
	)
}

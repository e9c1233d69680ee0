// Command relay serves a demo application built on the relay framework.
//
//	relay run --port 8080 --config relay.yaml --reload
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/relay/core/config"
	"github.com/dmitrymomot/relay/core/logger"
	"github.com/dmitrymomot/relay/core/server"
	"github.com/dmitrymomot/relay/middleware"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "run":
		if err := run(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "relay: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("relay %s\n", version)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: relay run [--host HOST] [--port PORT] [--config FILE] [--reload]")
	fmt.Fprintln(os.Stderr, "       relay version")
}

func run(args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	host := fs.String("host", "", "Interface to listen on")
	port := fs.Int("port", 0, "Port to listen on (overrides the configured address)")
	configPath := fs.String("config", "", "Path to a YAML configuration file")
	reload := fs.Bool("reload", false, "Apply debug and log level changes from the config file without restarting")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *reload && *configPath == "" {
		return errors.New("--reload requires --config")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	addr := cfg.Server.Addr
	if *host != "" || *port != 0 {
		h, p, _ := net.SplitHostPort(addr)
		if *host != "" {
			h = *host
		}
		if *port != 0 {
			p = strconv.Itoa(*port)
		}
		addr = net.JoinHostPort(h, p)
	}

	var level slog.LevelVar
	level.Set(logger.ParseLevel(cfg.Log.Level))
	logOpts := []logger.Option{
		logger.WithLevelVar(&level),
		logger.WithAttr(slog.String("service", "relay")),
		logger.WithContextExtractors(middleware.RequestIDExtractor, middleware.TraceIDExtractor),
	}
	if cfg.Log.Format == "json" {
		logOpts = append(logOpts, logger.WithJSONFormatter())
	}
	log := logger.New(logOpts...)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var rdb redis.UniversalClient
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		rdb = redis.NewClient(opts)
	}

	app, err := newApp(cfg, deps{logger: log, registry: reg, redis: rdb})
	if err != nil {
		return err
	}
	if err := app.OnShutdown(func(ctx context.Context) error {
		return tp.Shutdown(ctx)
	}); err != nil {
		return err
	}
	if rdb != nil {
		if err := app.OnStartup(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}); err != nil {
			return err
		}
		if err := app.OnShutdown(func(context.Context) error {
			return rdb.Close()
		}); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.InfoContext(gctx, "starting relay",
			logger.Component("cmd"),
			logger.Version(version),
			logger.Addr(addr),
			logger.Count("routes", len(app.Routes())),
		)
		return app.Run(gctx, addr)
	})

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		metricsSrv := server.New(cfg.MetricsAddr, server.WithLogger(log))
		g.Go(metricsSrv.Run(gctx, mux))
	}

	if *reload {
		w, err := config.NewWatcher[settings](*configPath, config.WithLogger(log))
		if err != nil {
			return err
		}
		w.OnChange(func(next settings) {
			app.SetDebug(next.Debug)
			level.Set(logger.ParseLevel(next.Log.Level))
			log.Info("configuration reloaded",
				logger.Component("cmd"),
				slog.Bool("debug", next.Debug),
				slog.String("log_level", next.Log.Level),
			)
		})
		g.Go(func() error { return w.Run(gctx) })
	}

	return g.Wait()
}

func loadConfig(path string) (settings, error) {
	var cfg settings
	if path == "" {
		if err := config.Load(&cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}
	if err := config.LoadFile(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

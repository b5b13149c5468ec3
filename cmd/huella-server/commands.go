package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/BrandonDHaskell/huella/internal/biometric/service"
	"github.com/BrandonDHaskell/huella/internal/biometric/store/sqlstore"
	"github.com/BrandonDHaskell/huella/internal/bridgeauth"
	"github.com/BrandonDHaskell/huella/internal/config"
	"github.com/BrandonDHaskell/huella/internal/db"
	"github.com/BrandonDHaskell/huella/internal/grpcapi"
	"github.com/BrandonDHaskell/huella/internal/httpapi"
	"github.com/BrandonDHaskell/huella/internal/logger"
	"github.com/BrandonDHaskell/huella/internal/telemetry"
)

const (
	serviceName   = "huella-server"
	shutdownGrace = 5 * time.Second
)

func newRootCmd() *cobra.Command {
	runE := func(cmd *cobra.Command, _ []string) error {
		cfg, err := serveConfig(cmd)
		if err != nil {
			return err
		}
		return runServe(cmd.Context(), cfg)
	}

	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Fingerprint enrollment and access log server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runE,
	}
	root.Flags().String("addr", "", "HTTP listen address (overrides HUELLA_HTTP_ADDR)")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE:  runE,
	}
	serve.Flags().String("addr", "", "HTTP listen address (overrides HUELLA_HTTP_ADDR)")

	root.AddCommand(serve, newMigrateCmd(), newBridgeTokenCmd())
	return root
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			// Open applies migrations.
			h, err := db.Open(cmd.Context(), dbConfig(cfg))
			if err != nil {
				return err
			}
			defer func() { _ = h.Close() }()
			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", h.Driver)
			return nil
		},
	}
}

func newBridgeTokenCmd() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "bridge-token <bridge-name>",
		Short: "Issue a bearer token for a matching bridge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("ttl") {
				ttl = cfg.BridgeTokenTTL
			}
			auth, err := bridgeauth.New(cfg.BridgeTokenSecret, ttl)
			if err != nil {
				return fmt.Errorf("HUELLA_BRIDGE_TOKEN_SECRET: %w", err)
			}
			token, err := auth.Issue(args[0], time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to HUELLA_BRIDGE_TOKEN_TTL)")
	return cmd
}

func dbConfig(cfg config.Config) db.Config {
	return db.Config{
		Driver:       cfg.DBDriver,
		DSN:          cfg.DBDSN,
		Path:         cfg.DBPath,
		Env:          cfg.Env,
		MaxOpenConns: cfg.DBMaxOpenConns,
	}
}

// serveConfig loads the environment (including .env) and applies --addr
// only when it was given explicitly.
func serveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return config.Config{}, err
	}
	if cmd.Flags().Changed("addr") {
		addr, err := cmd.Flags().GetString("addr")
		if err != nil {
			return config.Config{}, err
		}
		cfg.HTTPAddr = addr
	}
	return cfg, nil
}

func runServe(parent context.Context, cfg config.Config) error {
	zl, err := logger.New(logger.Config{
		Level:      cfg.LogLevel,
		Dev:        cfg.LogDev || cfg.IsDev(),
		File:       cfg.LogFile,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = zl.Sync() }()
	log := zl.Sugar().With("service", serviceName)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Endpoint: cfg.OTelEndpoint,
		Enabled:  cfg.OTelEnabled,
	}, serviceName)
	if err != nil {
		log.Warnw("tracing disabled", "error", err)
		shutdownTracing = func(context.Context) error { return nil }
	}

	h, err := db.Open(ctx, dbConfig(cfg))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = h.Close() }()

	worker := db.NewWorker(h.DB, h.WriterCount(cfg.DBWriters))
	defer worker.Close()

	clock := clockwork.NewRealClock()
	identities := sqlstore.NewIdentityStore(h.DB)
	reader := sqlstore.NewReader(h)

	enrollSvc := service.NewEnrollmentService(service.EnrollmentDeps{
		Runner:       worker,
		Identities:   identities,
		Fingerprints: sqlstore.NewFingerprintStore(),
		Reader:       reader,
		Clock:        clock,
		Logger:       log.Named("enroll"),
	})
	accessSvc := service.NewAccessService(service.AccessDeps{
		Directory: service.NewIdentityDirectory(identities),
		Logs:      sqlstore.NewAccessLogStore(worker),
		Reader:    reader,
		Clock:     clock,
		Logger:    log.Named("access"),
	})
	exportSvc := service.NewExportService(reader, log.Named("export"))

	var auth *bridgeauth.Authority
	if cfg.BridgeTokenSecret != "" {
		if auth, err = bridgeauth.New(cfg.BridgeTokenSecret, cfg.BridgeTokenTTL); err != nil {
			return err
		}
	} else {
		log.Warnw("HUELLA_BRIDGE_TOKEN_SECRET not set; verification export is guarded by peer address only",
			"hint", "set a secret when the server sits behind a reverse proxy on the same host",
		)
	}

	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:            log.Named("http"),
		Addr:              cfg.HTTPAddr,
		EnrollmentService: enrollSvc,
		AccessService:     accessSvc,
		ExportService:     exportSvc,
		BridgeAuth:        auth,
		AllowedOrigins:    cfg.CORSAllowedOrigins,
		Ready:             reader.Ping,
		Clock:             clock,
	})

	grpcDone := make(chan struct{})
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return fmt.Errorf("listen grpc: %w", err)
		}
		health := grpcapi.New(reader, log.Named("grpc"), 15*time.Second)
		go func() {
			defer close(grpcDone)
			if err := health.Serve(ctx, lis); err != nil {
				log.Errorw("grpc server error", "error", err)
				stop()
			}
		}()
	} else {
		close(grpcDone)
	}

	go func() {
		log.Infow("listening",
			"addr", cfg.HTTPAddr,
			"db_driver", h.Driver,
			"writers", h.WriterCount(cfg.DBWriters),
		)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnw("http shutdown", "error", err)
	}
	<-grpcDone
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warnw("tracing shutdown", "error", err)
	}
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/xrs-network/xrsd/internal/api"
	"github.com/xrs-network/xrsd/internal/config"
	"github.com/xrs-network/xrsd/internal/infrastructure/memory"
	"github.com/xrs-network/xrsd/internal/infrastructure/sqlite"
	"github.com/xrs-network/xrsd/internal/log"
	"github.com/xrs-network/xrsd/internal/names/domain"
	"github.com/xrs-network/xrsd/internal/names/service"
	"github.com/xrs-network/xrsd/internal/tracing"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the registry server",
	Long: `Run the XRS registry as an HTTP server.

The server listens on the configured address (default :8545) and exposes
the /api endpoints for resolution, registration, search, and stats.

Example:
  xrsd serve                       # sqlite backend on :8545
  xrsd serve --addr :9000          # different port
  xrsd serve --backend memory      # ephemeral store for development`,
	RunE: runServe,
}

var (
	serveAddr    string
	serveBackend string
	serveDBPath  string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "address to listen on (overrides config)")
	serveCmd.Flags().StringVar(&serveBackend, "backend", "", `storage backend: "sqlite" or "memory" (overrides config)`)
	serveCmd.Flags().StringVar(&serveDBPath, "db", "", "sqlite database file (overrides config)")
}

func runServe(_ *cobra.Command, _ []string) error {
	if debugFlag {
		logPath := os.Getenv("XRSD_LOG")
		if logPath == "" {
			logPath = "debug.log"
		}
		cleanup, err := log.Init(logPath)
		if err != nil {
			return fmt.Errorf("initializing logging: %w", err)
		}
		defer cleanup()
		log.Info(log.CatConfig, "xrsd starting", "debug", true, "logPath", logPath)
	} else {
		log.InitWithWriter(os.Stderr)
		log.SetMinLevel(log.LevelInfo)
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	tracingCfg := cfg.Tracing
	if tracingCfg.Enabled && tracingCfg.Exporter == "file" && tracingCfg.FilePath == "" {
		tracingCfg.FilePath = config.DefaultTracesFilePath()
	}
	provider, err := tracing.NewProvider(tracingCfg)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}

	repo, closeRepo, err := openRepository()
	if err != nil {
		return err
	}
	defer closeRepo()

	svc := service.New(repo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if debugFlag {
		go logRegistrations(ctx, svc)
	}

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	server, err := api.NewServer(api.ServerConfig{
		Addr:    addr,
		Service: svc,
		Version: version,
		RateLimit: api.RateLimitConfig{
			GeneralLimit:   cfg.Server.RateLimit.GeneralLimit,
			GeneralWindow:  cfg.Server.RateLimit.GeneralWindow,
			RegisterLimit:  cfg.Server.RateLimit.RegisterLimit,
			RegisterWindow: cfg.Server.RateLimit.RegisterWindow,
		},
		DisableRateLimit: cfg.Server.RateLimit.Disabled,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("xrsd listening on port %d\n", server.Port())
	fmt.Println("Press Ctrl+C to stop")

	select {
	case sig := <-sigCh:
		fmt.Printf("\nReceived %s, shutting down...\n", sig)
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Stop(shutdownCtx); err != nil {
		log.ErrorErr(log.CatHTTP, "error stopping API server", err)
	}
	if err := provider.Shutdown(shutdownCtx); err != nil {
		log.ErrorErr(log.CatConfig, "error shutting down tracing", err)
	}

	fmt.Println("Server stopped")
	return nil
}

// openRepository selects the storage backend from config and flags.
func openRepository() (domain.NameRepository, func(), error) {
	backend := serveBackend
	if backend == "" {
		backend = cfg.Database.Backend
	}

	switch backend {
	case "", config.BackendSQLite:
		path := serveDBPath
		if path == "" {
			path = cfg.Database.Path
		}
		if path == "" {
			path = config.DefaultDatabasePath()
		}
		db, err := sqlite.NewDB(path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}
		return db.NameRepository(), func() { _ = db.Close() }, nil

	case config.BackendMemory:
		log.Warn(log.CatDB, "memory backend selected, registrations will not survive restart")
		repo := memory.NewNameRepository()
		return repo, func() { _ = repo.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q", backend)
	}
}

// logRegistrations tails registration events onto the debug log.
func logRegistrations(ctx context.Context, svc *service.Service) {
	for event := range svc.Events().Subscribe(ctx) {
		log.Debug(log.CatRegistry, "registry event",
			"type", event.Type,
			"name", event.Payload.Name,
			"address", event.Payload.Address,
		)
	}
}

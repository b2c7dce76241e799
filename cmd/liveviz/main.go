package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/visuscript/liveviz/internal/action"
	"github.com/visuscript/liveviz/internal/config"
	"github.com/visuscript/liveviz/internal/data"
	gonet "github.com/visuscript/liveviz/internal/net"
	"github.com/visuscript/liveviz/internal/net/httpapi"
	"github.com/visuscript/liveviz/internal/persist"
	"github.com/visuscript/liveviz/internal/scripting"
	"github.com/visuscript/liveviz/internal/sim"
	"github.com/visuscript/liveviz/internal/system"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(name string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              liveviz  v0.1.0              \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m       live array visualization engine     \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mscene:\033[0m %s\n\n", name)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, value string) {
	dotsLen := 42 - len(label) - len(value)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), value)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfg, err := config.Load(config.Path())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name)

	// 3. Optional action journal
	var journal system.JournalWriter
	if cfg.Journal.Enabled {
		printSection("journal")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		db, err := persist.NewDB(ctx, cfg.Journal, log)
		if err != nil {
			cancel()
			return fmt.Errorf("journal database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")

		version, err := persist.RunMigrations(ctx, db.Pool)
		cancel()
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printStat("schema version", fmt.Sprintf("%d", version))
		journal = persist.NewJournalRepo(db)
		fmt.Println()
	}

	// 4. Simulation
	s := sim.New(cfg, journal, log)

	printSection("simulation")
	printStat("tick rate", cfg.Server.TickRate.String())
	printStat("queue size", fmt.Sprintf("%d", cfg.Server.InQueueSize))
	printStat("actions", fmt.Sprintf("%d", len(action.Kinds())))
	fmt.Println()

	// 5. Transports
	auth, err := gonet.NewAuthenticator(cfg.Auth)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	printSection("network")
	tcp, err := gonet.NewServer(cfg.Network, s.Bridge, auth, log)
	if err != nil {
		return fmt.Errorf("tcp server: %w", err)
	}
	printStat("tcp", tcp.Addr().String())

	api := httpapi.New(s.Bridge, s.Snapshots, auth, log)
	printStat("http", cfg.Network.HTTPBindAddress)
	if auth.Enabled() {
		printOK("bearer token required")
	}
	fmt.Println()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go tcp.AcceptLoop(ctx)
	go func() {
		if err := api.Listen(cfg.Network.HTTPBindAddress); err != nil {
			log.Error("http server stopped", zap.Error(err))
		}
	}()

	// 6. Seed scene then scripts, both through the bridge once ticking starts
	go startScene(ctx, cfg, s.Bridge, log)

	// 7. Graceful shutdown
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-shutdownCh
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
		cancel()
	}()

	printReady(fmt.Sprintf("ticking every %s", cfg.Server.TickRate))
	s.Run(ctx)

	tcp.Shutdown()
	if err := api.Shutdown(); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	log.Info("server stopped")
	return nil
}

func startScene(ctx context.Context, cfg *config.Config, bridge *gonet.Bridge, log *zap.Logger) {
	if cfg.Scene.SeedFile != "" {
		scene, err := data.LoadScene(cfg.Scene.SeedFile)
		if err != nil {
			log.Error("scene not loaded", zap.Error(err))
		} else if ids, err := scene.Seed(ctx, bridge); err != nil {
			log.Error("scene seed failed", zap.Error(err))
		} else {
			log.Info(fmt.Sprintf("scene seeded: %d arrays", len(ids)))
		}
	}

	if cfg.Scripting.Enabled {
		engine := scripting.NewEngine(bridge, log.Named("lua"))
		if err := engine.RunDir(ctx, cfg.Scripting.Dir); err != nil {
			log.Warn("scripts finished with errors", zap.Error(err))
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

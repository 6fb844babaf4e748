// Package main is the entry point for the signal relay.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tathienbao/signal-relay/internal/config"
	"github.com/tathienbao/signal-relay/internal/engine"
	"github.com/tathienbao/signal-relay/internal/ingest"
	"github.com/tathienbao/signal-relay/internal/journal"
	"github.com/tathienbao/signal-relay/internal/metrics"
	"github.com/tathienbao/signal-relay/internal/reporting"
	"github.com/tathienbao/signal-relay/internal/terminal"
	"github.com/tathienbao/signal-relay/internal/terminal/mt5"
	"github.com/tathienbao/signal-relay/internal/terminal/sim"
	"github.com/tathienbao/signal-relay/internal/types"
)

// Version information (set by build flags).
var (
	Version   = "0.2.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "version", "-v", "--version":
		cmdVersion()
	case "help", "-h", "--help":
		printUsage()
	case "run":
		cmdRun(os.Args[2:])
	case "validate":
		cmdValidate(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Signal Relay - Structured-Signal to MT5 Order Execution

Usage:
  signal-relay <command> [options]

Commands:
  run        Start the relay (live or paper)
  validate   Validate configuration file
  version    Show version information
  help       Show this help message

Examples:
  signal-relay run --config config.yaml
  signal-relay run --config config.yaml --paper
  signal-relay validate --config config.yaml

Use "signal-relay <command> --help" for more information about a command.`)
}

func cmdVersion() {
	fmt.Printf("signal-relay version %s\n", Version)
	fmt.Printf("  Build time: %s\n", BuildTime)
	fmt.Printf("  Git commit: %s\n", GitCommit)
}

func cmdValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Configuration is valid!")
	fmt.Printf("  Terminal: %s (%s:%d)\n", cfg.Terminal.Type, cfg.Terminal.Host, cfg.Terminal.Port)
	fmt.Printf("  Lot size: %.2f\n", cfg.Trading.LotSize)
	fmt.Printf("  Deviation: %d points\n", cfg.Trading.DeviationPoints)
	fmt.Printf("  Magic: %d\n", cfg.Trading.Magic)
	fmt.Printf("  Ingest: %s\n", cfg.Ingest.Source)
}

func cmdRun(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "Path to configuration file")
	paperMode := fs.Bool("paper", false, "Paper mode: execute against the in-memory terminal")
	verbose := fs.Bool("verbose", false, "Verbose output")
	fs.Parse(args)

	// Setup structured logging
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	// Setup signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	termType := cfg.Terminal.Type
	if *paperMode {
		termType = "sim"
	}

	slog.Info("signal-relay starting",
		"version", Version,
		"terminal", termType,
		"ingest", cfg.Ingest.Source,
		"lot_size", cfg.Trading.LotSize,
	)

	recorder := metrics.NewRecorder()

	// Terminal connection: one per process, opened here, closed at
	// shutdown.
	var term terminal.Terminal
	switch termType {
	case "sim":
		term = sim.New(logger)
	default:
		term = mt5.NewClient(cfg.ToMT5Config(), logger)
	}

	if err := term.Connect(ctx); err != nil {
		// Degraded mode: signals are still received and journaled,
		// execution outcomes report the gateway as unreachable.
		slog.Warn("terminal not available, signals will be journaled but not executed", "err", err)
	}
	recorder.RecordTerminalStatus(term.IsConnected())

	// Outcome reporting
	reporter := buildReporter(cfg, logger)
	summary := reporting.NewSessionSummary()

	// Execution journal
	repo := buildJournal(cfg)
	defer func() {
		if err := repo.Close(); err != nil {
			slog.Warn("failed to close journal", "err", err)
		}
	}()

	// Metrics server
	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		scfg := metrics.DefaultServerConfig()
		scfg.Port = cfg.Metrics.Port
		scfg.MetricsPath = cfg.Metrics.Path
		metricsServer = metrics.NewServer(scfg, logger)
		metricsServer.RegisterHealthCheck("terminal", func() metrics.Check {
			if term.IsConnected() {
				return metrics.Check{Status: "healthy"}
			}
			return metrics.Check{Status: "unhealthy", Message: "terminal disconnected"}
		})
		if err := metricsServer.Start(); err != nil {
			slog.Error("failed to start metrics server", "err", err)
		}
	}

	eng := engine.New(cfg.ToEngineConfig(), term, reporter, logger)

	handler := func(ctx context.Context, sig types.Signal) {
		slog.Info("signal received",
			"signal_id", sig.ID,
			"action", sig.Action,
			"sub_action", sig.SubAction,
			"symbol", sig.Symbol,
		)
		summary.ObserveSignal()

		if err := repo.SaveSignal(ctx, journal.NewSignalRecord(sig)); err != nil {
			recorder.RecordJournalError()
			slog.Warn("failed to journal signal", "signal_id", sig.ID, "err", err)
		}

		outcomes := eng.Execute(ctx, sig)
		for _, out := range outcomes {
			summary.ObserveOutcome(out)
			if err := repo.SaveOutcome(ctx, journal.NewOutcomeRecord(out)); err != nil {
				recorder.RecordJournalError()
				slog.Warn("failed to journal outcome", "signal_id", sig.ID, "err", err)
			}
		}
	}

	// Ingest source, runs until shutdown
	var source ingest.Source
	switch cfg.Ingest.Source {
	case "tcp":
		source = ingest.NewTCPSource(cfg.Ingest.Listen, logger)
	default:
		source = ingest.NewReaderSource(os.Stdin, logger)
	}

	slog.Info("listening for signals", "source", source.Name())
	if err := source.Run(ctx, handler); err != nil && ctx.Err() == nil {
		slog.Error("ingest source failed", "err", err)
	}

	slog.Info("shutting down")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.ShutdownTimeout(),
	)
	defer cancel()

	if reporter != nil {
		if err := summary.Report(shutdownCtx, reporter); err != nil {
			slog.Warn("failed to send session summary", "err", err)
		}
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("failed to shut down metrics server", "err", err)
		}
	}

	if err := term.Disconnect(); err != nil {
		slog.Warn("failed to disconnect terminal", "err", err)
	}

	// Small delay to allow final log messages
	time.Sleep(100 * time.Millisecond)

	slog.Info("signal-relay shutdown complete")
}

// buildReporter assembles the configured report channels.
func buildReporter(cfg *config.Config, logger *slog.Logger) reporting.Reporter {
	if !cfg.Reporting.Enabled {
		return reporting.NewConsoleReporter(logger)
	}

	multi := reporting.NewMultiReporter(logger)
	for _, ch := range cfg.Reporting.Channels {
		switch ch.Type {
		case "telegram":
			multi.AddReporter(reporting.NewTelegramReporter(reporting.TelegramConfig{
				BotToken: ch.BotToken,
				ChatID:   ch.ChatID,
			}))
		case "console":
			multi.AddReporter(reporting.NewConsoleReporter(logger))
		}
	}
	return multi
}

// buildJournal opens the execution journal, or a no-op one when disabled.
func buildJournal(cfg *config.Config) journal.Repository {
	if !cfg.Journal.Enabled {
		return journal.Nop{}
	}
	repo, err := journal.NewSQLiteRepository(cfg.Journal.Path)
	if err != nil {
		slog.Warn("failed to open journal, journaling disabled", "err", err)
		return journal.Nop{}
	}
	return repo
}

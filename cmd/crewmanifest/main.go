package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/crewmanifest/crewmanifest/internal/config"
	"github.com/crewmanifest/crewmanifest/internal/logging"
	"github.com/crewmanifest/crewmanifest/internal/telemetry"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:])
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	runID := uuid.NewString()[:8]
	logger, err := logging.New(ctx,
		logging.WithDir(cfg.LogDir()),
		logging.WithRotation(cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays),
		logging.WithRunID(runID),
	)
	if err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	defer func() {
		if closeErr := logger.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "failed to close logger: %v\n", closeErr)
		}
	}()

	telemetry.ServiceVersion = Version
	shutdown, err := telemetry.Init(ctx,
		telemetry.WithEndpoint(cfg.OTel.Endpoint),
		telemetry.WithLogger(logger.Logger),
	)
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	defer shutdown()

	cmd := newRootCommand(&app{cfg: cfg, logger: logger.Logger, debug: logger.Debug})
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "crewmanifest",
		Short:         "Crew manifest and transfer bookkeeping for simulated vessels",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
	}

	root.SetVersionTemplate("{{printf \"%s\\n\" .Version}}")
	root.AddCommand(
		newTUICommand(a),
		newDemoCommand(a),
		newRosterCommand(a),
		newVesselCommand(a),
		newSettingsCommand(a),
		newBugreportCommand(a),
	)

	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		if a == nil || a.logger == nil {
			return errors.New("logger is required")
		}
		if a.cfg == nil {
			return errors.New("config is required")
		}
		a.logger.With("command", cmd.CommandPath()).Debug("command invocation")
		return nil
	}
	return root
}

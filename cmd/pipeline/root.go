package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/salesrecon/backend/internal/bootstrap"
	"github.com/salesrecon/backend/internal/infrastructure/config"
	"github.com/salesrecon/backend/internal/infrastructure/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// environment is shared by every subcommand of one root
type environment struct {
	load     func() (*config.Config, error)
	logLevel string
}

func newRootCmd(load func() (*config.Config, error)) *cobra.Command {
	env := &environment{load: load}

	root := &cobra.Command{
		Use:           "salesrecon-pipeline",
		Short:         "Load, reconcile, enrich and tier sales orders",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&env.logLevel, "log-level", "", "Override log.level (debug, info, warn, error)")

	root.AddCommand(
		newRunCmd(env),
		newLoadBronzeCmd(env),
		newLoadReferenceCmd(env),
		newTierCmd(env),
		newInitDBCmd(env),
		newMigrateCmd(env),
	)
	return root
}

// setup loads the configuration and builds the command's logger. The
// returned release flushes the logger.
func (e *environment) setup(cmd *cobra.Command) (*config.Config, *zap.Logger, func(), error) {
	cfg, err := e.load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	if e.logLevel != "" {
		cfg.Log.Level = e.logLevel
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02 15:04:05",
		Service:    cfg.App.Name,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("initialize logger: %w", err)
	}
	log = log.With(zap.String("command", cmd.CommandPath()))
	release := func() { _ = logger.Sync(log) }
	return cfg, log, release, nil
}

// withApp builds the application for one command and releases it when the
// command returns. opts is read when the command runs, after flag parsing.
func (e *environment) withApp(opts *bootstrap.Options, run func(cmd *cobra.Command, app *bootstrap.App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, log, release, err := e.setup(cmd)
		if err != nil {
			return err
		}
		defer release()

		ctx := logger.WithContext(cmd.Context(), log)
		built := *opts
		if cfg.Database.Driver == "sqlite" {
			built.AutoMigrate = true
		}
		app, err := bootstrap.New(ctx, cfg, log, built)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := app.Close(context.WithoutCancel(ctx)); cerr != nil {
				log.Warn("Failed to release resources", zap.Error(cerr))
			}
		}()

		cmd.SetContext(logger.WithContext(ctx, app.Logger))
		return run(cmd, app)
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

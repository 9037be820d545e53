package main

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/salesrecon/backend/internal/infrastructure/migration"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultSourceRoot = "internal/infrastructure/migration/sql"

// newMigrateCmd manages the versioned schema. Postgres stores are migrated
// here; sqlite stores are also created by the other commands.
func newMigrateCmd(env *environment) *cobra.Command {
	var sourceRoot string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, roll back or author schema migrations",
	}
	cmd.PersistentFlags().StringVar(&sourceRoot, "dir", defaultSourceRoot, "Migration source tree used by create and list")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE:  env.withMigrator(func(_ *cobra.Command, m *migration.Migrator, _ []string) error { return m.Up() }),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back all migrations",
			Args:  cobra.NoArgs,
			RunE:  env.withMigrator(func(_ *cobra.Command, m *migration.Migrator, _ []string) error { return m.Down() }),
		},
		&cobra.Command{
			Use:   "step [--] <n>",
			Short: "Apply n migrations; negative n rolls back and needs a leading --",
			Args:  cobra.ExactArgs(1),
			RunE: env.withMigrator(func(_ *cobra.Command, m *migration.Migrator, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				return m.Steps(n)
			}),
		},
		&cobra.Command{
			Use:   "goto <version>",
			Short: "Migrate up or down to a version",
			Args:  cobra.ExactArgs(1),
			RunE: env.withMigrator(func(_ *cobra.Command, m *migration.Migrator, args []string) error {
				v, err := strconv.ParseUint(args[0], 10, 32)
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return m.GoTo(uint(v))
			}),
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Record a version without running it, clearing a dirty state",
			Args:  cobra.ExactArgs(1),
			RunE: env.withMigrator(func(_ *cobra.Command, m *migration.Migrator, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return m.Force(v)
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: env.withMigrator(func(cmd *cobra.Command, m *migration.Migrator, _ []string) error {
				st, err := m.Status()
				if err != nil {
					return err
				}
				return printJSON(cmd, st)
			}),
		},
		&cobra.Command{
			Use:   "create <name> [description]",
			Short: "Create an up/down pair for every dialect",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				description := ""
				if len(args) == 2 {
					description = args[1]
				}
				files, err := migration.CreateMigration(sourceRoot, args[0], description)
				if err != nil {
					return err
				}
				return printJSON(cmd, files)
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List the migrations in the source tree",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				listing := make(map[string][]string, len(migration.Dialects))
				for _, dialect := range migration.Dialects {
					names, err := migration.ListMigrations(filepath.Join(sourceRoot, dialect))
					if err != nil {
						return err
					}
					listing[dialect] = names
				}
				return printJSON(cmd, listing)
			},
		},
	)
	return cmd
}

// withMigrator opens a plain connection to the configured store for the
// migration subcommands; they must not depend on the schema they manage.
func (e *environment) withMigrator(run func(cmd *cobra.Command, m *migration.Migrator, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, log, release, err := e.setup(cmd)
		if err != nil {
			return err
		}
		defer release()

		db, err := sql.Open(sqlDriverName(cfg.Database.Driver), cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(cmd.Context()); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}

		m, err := migration.New(db, cfg.Database.Driver, log)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := m.Close(); cerr != nil {
				log.Debug("Migrator close", zap.Error(cerr))
			}
		}()
		return run(cmd, m, args)
	}
}

// sqlDriverName maps database.driver to the registered database/sql driver
func sqlDriverName(driver string) string {
	if driver == "postgres" {
		return "postgres"
	}
	return "sqlite3"
}

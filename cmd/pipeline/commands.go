package main

import (
	"github.com/salesrecon/backend/internal/application/ingest"
	"github.com/salesrecon/backend/internal/bootstrap"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRunCmd(env *environment) *cobra.Command {
	opts := &bootstrap.Options{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the silver, gold and tier stages once",
		Long: "Validates the bronze tables into canonical orders, converts them to\n" +
			"curated orders and clusters cities into tiers. Exits non-zero when\n" +
			"another run holds the run lock.",
		Args: cobra.NoArgs,
		RunE: env.withApp(opts, func(cmd *cobra.Command, app *bootstrap.App) error {
			summary, err := app.Runner.Run(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, summary)
		}),
	}
	cmd.Flags().BoolVar(&opts.SkipTiering, "skip-tiering", false, "Stop after the gold stage")
	cmd.Flags().BoolVar(&opts.LockFallback, "lock-fallback", false, "Use a process-local lock when redis is unreachable")
	return cmd
}

func newLoadBronzeCmd(env *environment) *cobra.Command {
	var keys ingest.BronzeKeys
	cmd := &cobra.Command{
		Use:   "load-bronze",
		Short: "Upsert the raw extracts into the bronze tables",
		Args:  cobra.NoArgs,
		RunE: env.withApp(&bootstrap.Options{}, func(cmd *cobra.Command, app *bootstrap.App) error {
			res, err := app.Ingest.LoadBronze(cmd.Context(), keys)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		}),
	}
	cmd.Flags().StringVar(&keys.SourceA, "source-a", "bronze/source_a.csv", "Blob key of the source A CSV extract; empty skips it")
	cmd.Flags().StringVar(&keys.SourceB, "source-b", "bronze/source_b.json", "Blob key of the source B JSON extract; empty skips it")
	cmd.Flags().StringVar(&keys.CityDistrictMap, "city-district", "bronze/city_district_map.csv", "Blob key of the city/district map CSV; empty skips it")
	return cmd
}

func newLoadReferenceCmd(env *environment) *cobra.Command {
	var cityFile, districtFile string
	cmd := &cobra.Command{
		Use:   "load-reference",
		Short: "Upsert the city and district translation files",
		Args:  cobra.NoArgs,
		RunE: env.withApp(&bootstrap.Options{}, func(cmd *cobra.Command, app *bootstrap.App) error {
			keys := bootstrap.ReferenceKeys(app.Config.Reference)
			if cityFile != "" {
				keys.CityFile = cityFile
			}
			if districtFile != "" {
				keys.DistrictFile = districtFile
			}
			res, err := app.Ingest.LoadReference(cmd.Context(), keys)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		}),
	}
	cmd.Flags().StringVar(&cityFile, "city-file", "", "Blob key of the city translations (default reference.city_file)")
	cmd.Flags().StringVar(&districtFile, "district-file", "", "Blob key of the district translations (default reference.district_file)")
	return cmd
}

func newTierCmd(env *environment) *cobra.Command {
	var elbow bool
	cmd := &cobra.Command{
		Use:   "tier",
		Short: "Cluster cities by settlement into tiers",
		Long: "Re-runs only the tier stage over the current curated orders. With\n" +
			"--elbow it prints the inertia curve instead and writes nothing.",
		Args: cobra.NoArgs,
		RunE: env.withApp(&bootstrap.Options{}, func(cmd *cobra.Command, app *bootstrap.App) error {
			if elbow {
				points, err := app.Tiering.Elbow(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd, points)
			}
			res, err := app.Tiering.Run(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		}),
	}
	cmd.Flags().BoolVar(&elbow, "elbow", false, "Print inertia for k = 1..tiering.elbow_max_k")
	return cmd
}

func newInitDBCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create the pipeline tables from the models",
		Args:  cobra.NoArgs,
		RunE: env.withApp(&bootstrap.Options{AutoMigrate: true}, func(cmd *cobra.Command, app *bootstrap.App) error {
			app.Logger.Info("Database schema initialized", zap.String("driver", app.Config.Database.Driver))
			return nil
		}),
	}
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"launchdash/adapters/excel"
	"launchdash/adapters/postgres"
	"launchdash/domain/launch"
	"launchdash/internal/config"
	"launchdash/internal/container"
	"launchdash/internal/dashboard"
	"launchdash/internal/errors"
	"launchdash/internal/migration"
	"launchdash/internal/query"
	"launchdash/internal/report"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	file  string
	sheet string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "launchdash",
		Short:         "Query the launch records dataset from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.file, "file", "", "CSV or XLSX launch records file (overrides DATASET_FILE)")
	rootCmd.PersistentFlags().StringVar(&opts.sheet, "sheet", "", "worksheet to read from an XLSX file")

	rootCmd.AddCommand(
		newPieCmd(opts),
		newScatterCmd(opts),
		newSummaryCmd(opts),
		newReportCmd(opts),
		newImportCmd(opts),
	)
	return rootCmd
}

// loadEngine loads the dataset from --file when given, otherwise from the configured source
func loadEngine(ctx context.Context, opts *rootOptions) (*query.Engine, error) {
	if opts.file != "" {
		dataset, err := loadFile(ctx, opts)
		if err != nil {
			return nil, err
		}
		return query.NewEngine(dataset), nil
	}

	appConfig, err := config.Load()
	if err != nil {
		return nil, err
	}
	source, db, err := container.NewSource(ctx, appConfig)
	if db != nil {
		defer db.Close()
	}
	if err != nil {
		return nil, err
	}

	dataset, err := source.Load(ctx)
	if err != nil {
		return nil, err
	}
	return query.NewEngine(dataset), nil
}

func loadFile(ctx context.Context, opts *rootOptions) (*launch.Dataset, error) {
	excelConfig := excel.DefaultExcelConfig()
	excelConfig.FilePath = opts.file
	if opts.sheet != "" {
		excelConfig.Sheet = opts.sheet
	}
	return excel.NewLaunchSource(excelConfig).Load(ctx)
}

func newPieCmd(opts *rootOptions) *cobra.Command {
	var site string

	cmd := &cobra.Command{
		Use:   "pie",
		Short: "Print the success-distribution chart for a site or ALL",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := loadEngine(cmd.Context(), opts)
			if err != nil {
				return err
			}
			pie := dashboard.BuildPieChart(engine.SuccessDistribution(launch.ParseSelection(site)))
			return printJSON(cmd, pie)
		},
	}
	cmd.Flags().StringVar(&site, "site", launch.AllSitesValue, "launch site or ALL")
	return cmd
}

type rangeFlags struct {
	site string
	min  string
	max  string
}

func (f *rangeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.site, "site", launch.AllSitesValue, "launch site or ALL")
	cmd.Flags().StringVar(&f.min, "min", "", "minimum payload in kg (default: observed minimum)")
	cmd.Flags().StringVar(&f.max, "max", "", "maximum payload in kg (default: observed maximum)")
}

func (f *rangeFlags) resolve(engine *query.Engine) (launch.Selection, launch.PayloadRange, error) {
	bounds, _ := engine.Dataset().PayloadBounds()
	pr, err := dashboard.ParsePayloadRange(f.min, f.max, bounds)
	return launch.ParseSelection(f.site), pr, err
}

func newScatterCmd(opts *rootOptions) *cobra.Command {
	flags := &rangeFlags{}

	cmd := &cobra.Command{
		Use:   "scatter",
		Short: "Print the payload-vs-outcome chart for a site and payload range",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := loadEngine(cmd.Context(), opts)
			if err != nil {
				return err
			}
			sel, pr, err := flags.resolve(engine)
			if err != nil {
				return err
			}
			chart, err := dashboard.BuildScatterChart(sel, pr, engine.PayloadOutcomes(sel, pr))
			if err != nil {
				return err
			}
			return printJSON(cmd, chart)
		},
	}
	flags.register(cmd)
	return cmd
}

func newSummaryCmd(opts *rootOptions) *cobra.Command {
	flags := &rangeFlags{}

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print payload statistics and booster success rates",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := loadEngine(cmd.Context(), opts)
			if err != nil {
				return err
			}
			sel, pr, err := flags.resolve(engine)
			if err != nil {
				return err
			}
			summary, err := query.Summarize(engine.PayloadOutcomes(sel, pr))
			if err != nil {
				return err
			}
			return printJSON(cmd, summary)
		},
	}
	flags.register(cmd)
	return cmd
}

func newReportCmd(opts *rootOptions) *cobra.Command {
	flags := &rangeFlags{}
	var asHTML bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a markdown report of both charts",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := loadEngine(cmd.Context(), opts)
			if err != nil {
				return err
			}
			sel, pr, err := flags.resolve(engine)
			if err != nil {
				return err
			}
			pie := dashboard.BuildPieChart(engine.SuccessDistribution(sel))
			scatter, err := dashboard.BuildScatterChart(sel, pr, engine.PayloadOutcomes(sel, pr))
			if err != nil {
				return err
			}

			md := report.Markdown(engine.Dataset().Source(), pie, scatter)
			if asHTML {
				md = report.HTML(md)
			}
			_, err = cmd.OutOrStdout().Write(md)
			return err
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&asHTML, "html", false, "render the report as HTML")
	return cmd
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Create the launch table and copy the --file records into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.file == "" {
				return errors.InvalidInput("--file is required for import")
			}
			ctx := cmd.Context()

			dataset, err := loadFile(ctx, opts)
			if err != nil {
				return err
			}

			appConfig, err := config.Load()
			if err != nil {
				return err
			}
			db, err := postgres.Connect(ctx, appConfig.Database.URL)
			if err != nil {
				return err
			}
			defer db.Close()

			runner, err := migration.NewRunner(appConfig.Dataset.Table)
			if err != nil {
				return err
			}
			if err := runner.Run(ctx, db); err != nil {
				return err
			}

			repo, err := postgres.NewLaunchRepository(db, appConfig.Dataset.Table)
			if err != nil {
				return err
			}
			records := make([]launch.Record, 0, dataset.Len())
			dataset.Each(func(r launch.Record) {
				records = append(records, r)
			})
			if err := repo.Insert(ctx, records); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d launch records into %s\n", len(records), appConfig.Dataset.Table)
			return nil
		},
	}
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

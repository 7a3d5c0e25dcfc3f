package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"NewsDigest/internal/app"
	"NewsDigest/internal/config"
	"NewsDigest/internal/domain"
	"NewsDigest/internal/logging"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "newsdigest",
		Short: "Collect, summarize and report market news",
		Long: `newsdigest fetches news for stock symbols, stores them, summarizes each
article with a language model and builds daily reports from the summaries.

Example usage:
  newsdigest init-db
  newsdigest fetch --symbol TSLA --date 2025-07-31
  newsdigest report --date 2025-07-31 --symbol TSLA
  newsdigest serve`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default $NEWSDIGEST_CONFIG)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	root.AddCommand(
		newInitDBCmd(opts),
		newFetchCmd(opts),
		newProcessCmd(opts),
		newEnrichCmd(opts),
		newReportCmd(opts),
		newStatsCmd(opts),
		newServeCmd(opts),
	)
	return root
}

func (o *rootOptions) load() (config.Config, *slog.Logger) {
	cfg := config.Load()
	if o.configPath != "" {
		cfg = config.LoadFrom(o.configPath)
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	return cfg, logging.New(cfg.Logging.Level, cfg.Logging.Format)
}

// withApp builds the application for one command and closes it afterwards.
func (o *rootOptions) withApp(cmd *cobra.Command, run func(*app.Application, *slog.Logger) error) error {
	cfg, logger := o.load()
	application, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := application.Close(); cerr != nil {
			logger.Warn("close application", "error", cerr)
		}
	}()
	return run(application, logger)
}

func newInitDBCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create the news table and indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(a *app.Application, logger *slog.Logger) error {
				if err := a.InitDB(cmd.Context()); err != nil {
					return err
				}
				logger.Info("database initialized")
				return nil
			})
		},
	}
}

func newFetchCmd(opts *rootOptions) *cobra.Command {
	var (
		symbol    string
		date      string
		window    int
		noProcess bool
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch news for a symbol and process it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			day, err := parseDay(date)
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(a *app.Application, logger *slog.Logger) error {
				snap, result, err := a.Fetch(cmd.Context(), symbol, day, window, !noProcess)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "fetched %d news items for %s (%s .. %s)\n", len(snap.News), snap.Symbol, snap.StartTime, snap.EndTime)
				if result != nil {
					printAppend(out, result.Append)
					printEnrich(out, result.Enrich)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "", "stock symbol, e.g. TSLA")
	cmd.Flags().StringVar(&date, "date", "", "window start date YYYY-MM-DD (default today, UTC)")
	cmd.Flags().IntVar(&window, "window", 0, "window length in days (default from config)")
	cmd.Flags().BoolVar(&noProcess, "no-process", false, "only write the snapshot, do not store or summarize")
	_ = cmd.MarkFlagRequired("symbol")
	return cmd
}

func newProcessCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "process <snapshot.json>",
		Short: "Store and summarize a previously saved snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(a *app.Application, _ *slog.Logger) error {
				result, err := a.ProcessFile(cmd.Context(), args[0])
				printAppend(cmd.OutOrStdout(), result.Append)
				printEnrich(cmd.OutOrStdout(), result.Enrich)
				return err
			})
		},
	}
}

func newEnrichCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "enrich",
		Short: "Summarize every stored item that has no summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(a *app.Application, _ *slog.Logger) error {
				result, err := a.Enrich(cmd.Context())
				printEnrich(cmd.OutOrStdout(), result)
				return err
			})
		},
	}
}

func newReportCmd(opts *rootOptions) *cobra.Command {
	var (
		date   string
		symbol string
		notify bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate the daily report from stored summaries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(a *app.Application, _ *slog.Logger) error {
				report, err := a.Report(cmd.Context(), date, strings.ToUpper(strings.TrimSpace(symbol)), notify)
				if report != "" {
					fmt.Fprintln(cmd.OutOrStdout(), report)
				}
				return err
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "report date YYYY-MM-DD")
	cmd.Flags().StringVar(&symbol, "symbol", "", "limit to one symbol (default all)")
	cmd.Flags().BoolVar(&notify, "notify", false, "publish the report to Telegram")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show stored item counts by enrichment status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(a *app.Application, _ *slog.Logger) error {
				stats, err := a.Stats(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "total: %d\npending: %d\ndone: %d\nfailed: %d\n",
					stats.Total, stats.Pending, stats.Done, stats.Failed)
				return nil
			})
		},
	}
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduled daily job until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(a *app.Application, _ *slog.Logger) error {
				return a.Serve(cmd.Context())
			})
		},
	}
}

func parseDay(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Now().UTC(), nil
	}
	day, err := time.Parse(domain.DayLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return day, nil
}

func printAppend(w io.Writer, r domain.AppendResult) {
	fmt.Fprintf(w, "stored: %d inserted, %d duplicates, %d failed\n", r.Inserted, r.Duplicates, r.Failed)
}

func printEnrich(w io.Writer, r domain.EnrichResult) {
	fmt.Fprintf(w, "summarized: %d of %d (%d failed, %d store errors)\n", r.Summarized, r.Processed, r.Failed, r.StoreErrors)
}

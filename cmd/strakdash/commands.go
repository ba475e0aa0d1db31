package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"strakdash/internal/app"
	"strakdash/internal/dashboard"
	"strakdash/internal/exporter"
	"strakdash/internal/infrastructure"
	"strakdash/internal/services"
	"strakdash/internal/snapshot"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Load the datasets and serve the dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			defer func() { _ = infrastructure.CloseLogFile() }()
			a, err := app.NewApplication(cmd.Context(), cfg)
			if err != nil {
				infrastructure.GetLogger().Error("startup failed", slog.String("error", err.Error()))
				return err
			}
			return a.Run(cmd.Context())
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 8050, "Port to listen on")
	return cmd
}

func newSummaryCmd(g *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the page 1 statistics for a year range",
		RunE: func(cmd *cobra.Command, args []string) error {
			minYear, err := optionalInt(cmd, "min-year")
			if err != nil {
				return err
			}
			maxYear, err := optionalInt(cmd, "max-year")
			if err != nil {
				return err
			}

			svc, _, err := g.loadService(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			page, err := svc.Page1(cmd.Context(), minYear, maxYear)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), summaryJSON{
					Range:      page.Range,
					PriceStats: page.PriceStats,
					LossTotals: page.LossTotals,
					Rows:       page.Rows.Len(),
				})
			}
			return writeSummary(cmd.OutOrStdout(), page)
		},
	}
	cmd.Flags().Int("min-year", 0, "First year of the range (default: first year in the data)")
	cmd.Flags().Int("max-year", 0, "Last year of the range (default: last year in the data)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of text")
	return cmd
}

type summaryJSON struct {
	Range      dashboard.Range      `json:"range"`
	PriceStats dashboard.PriceStats `json:"price_stats"`
	LossTotals dashboard.LossTotals `json:"loss_totals"`
	Rows       int                  `json:"rows"`
}

func writeSummary(w io.Writer, page *dashboard.Page1) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", page.Title)
	fmt.Fprintf(&b, "Years %d-%d (%d price rows)\n\n", page.Range.MinYear, page.Range.MaxYear, page.Rows.Len())
	for _, line := range page.PriceLabels {
		fmt.Fprintln(&b, line)
	}
	fmt.Fprintln(&b)
	for _, line := range page.LossLabels {
		fmt.Fprintln(&b, line)
	}
	fmt.Fprintf(&b, "Total: %s\n", page.LossTotals.Total)
	_, err := io.WriteString(w, b.String())
	return err
}

func newExportCmd(g *globalFlags) *cobra.Command {
	var (
		name       string
		format     string
		out        string
		yearColumn string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write one dataset to a CSV, XLSX or Parquet file",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := exporter.ParseFormat(format)
			if err != nil {
				return err
			}
			minYear, err := optionalInt(cmd, "min-year")
			if err != nil {
				return err
			}
			maxYear, err := optionalInt(cmd, "max-year")
			if err != nil {
				return err
			}

			svc, logger, err := g.loadService(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			t, err := svc.Dataset(cmd.Context(), services.DatasetQuery{
				Name:       name,
				MinYear:    minYear,
				MaxYear:    maxYear,
				YearColumn: yearColumn,
			})
			if err != nil {
				return err
			}

			if out == "" {
				out = f.Filename(name)
			}
			if err := exporter.WriteFile(out, name, t, f); err != nil {
				return err
			}
			logger.Info("dataset exported",
				slog.String("dataset", name),
				slog.String("format", string(f)),
				slog.String("path", out),
				slog.Int("rows", t.Len()))
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "dataset", "d", "", "Dataset name, e.g. loss or merged (required)")
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "Output format: csv, xlsx or parquet")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default: <dataset>.<format>)")
	cmd.Flags().StringVar(&yearColumn, "year-column", "", "Column the year range applies to (default: the dataset's year column)")
	cmd.Flags().Int("min-year", 0, "First year to include")
	cmd.Flags().Int("max-year", 0, "Last year to include")
	_ = cmd.MarkFlagRequired("dataset")
	return cmd
}

func newSnapshotCmd(g *globalFlags) *cobra.Command {
	opts := snapshot.DefaultOptions("http://localhost:8050/")
	var out string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save a PNG of a running dashboard using headless Chrome",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logger := offlineLogger(cmd, cfg)

			if err := snapshot.CaptureFile(cmd.Context(), opts, out, logger); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.URL, "url", opts.URL, "Dashboard URL")
	cmd.Flags().StringVarP(&out, "out", "o", "dashboard.png", "Output PNG file")
	cmd.Flags().DurationVar(&opts.Wait, "wait", opts.Wait, "Extra time to wait after the figures appear")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", opts.Timeout, "Overall capture timeout")
	cmd.Flags().StringVar(&opts.Selector, "selector", opts.Selector, "CSS selector to wait for before capturing")
	cmd.Flags().Int64Var(&opts.Width, "width", opts.Width, "Viewport width")
	cmd.Flags().Int64Var(&opts.Height, "height", opts.Height, "Viewport height")
	cmd.Flags().StringVar(&opts.ExecPath, "chrome", "", "Chrome binary (default: found on PATH)")
	return cmd
}

func newDatasetsCmd(g *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "List the loaded datasets",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := g.loadService(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			list, err := svc.Datasets(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), list)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tROWS\tYEAR COLUMN\tSOURCE")
			for _, d := range list {
				year := d.YearColumn
				if year == "" {
					year = "-"
				}
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", d.Name, d.Rows, year, d.Source)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

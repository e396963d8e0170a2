package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"labordash/internal/exporter"
	"labordash/internal/infrastructure"
	"labordash/internal/ingest"
	"labordash/internal/store"
	"labordash/pkg/contracts/domain"
)

type inspectFlags struct {
	dir    string
	format string
	export string
}

func newInspectCmd(root *rootFlags) *cobra.Command {
	flags := &inspectFlags{}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Load a data directory and print the load report and dimensions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInspect(cmd.Context(), cmd.OutOrStdout(), root, flags)
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.dir, "dir", "", "data directory (default: the configured data_dir)")
	f.StringVar(&flags.format, "format", "ascii", "table format: ascii or markdown")
	f.StringVar(&flags.export, "export", "", "also write every loaded observation to this CSV file")
	return cmd
}

func runInspect(ctx context.Context, out io.Writer, root *rootFlags, flags *inspectFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if flags.format != "ascii" && flags.format != "markdown" {
		return fmt.Errorf("unknown format %q: use ascii or markdown", flags.format)
	}

	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	dir := flags.dir
	if dir == "" {
		dir = cfg.GetDataDir()
	}

	// reports go to the terminal; keep the log quiet unless asked
	logger := infrastructure.NewJSONLogger(io.Discard, cfg.Logging.Level)

	ds, report, err := ingest.NewLoader(cfg.Loader, logger, nil).LoadDir(ctx, dir)
	if err != nil {
		return fmt.Errorf("load %s: %w", dir, err)
	}

	st := store.New(logger, nil)
	if err := st.Load(ctx, ds, store.ModeReplace); err != nil {
		return fmt.Errorf("load store: %w", err)
	}

	fmt.Fprintf(out, "Data directory: %s\n", dir)
	fmt.Fprintf(out, "Loaded %d observations from %d files in %s\n\n",
		report.Observations, len(report.Files), report.Duration.Round(time.Millisecond))

	render(out, flags.format, reportTable(report))
	if len(report.Warnings) > 0 {
		fmt.Fprintln(out)
		for _, w := range report.Warnings {
			fmt.Fprintf(out, "warning: %s\n", w)
		}
	}
	fmt.Fprintln(out)
	render(out, flags.format, dimensionsTable(st.Dimensions()))

	if flags.export != "" {
		path, err := filepath.Abs(flags.export)
		if err != nil {
			return fmt.Errorf("resolve export path: %w", err)
		}
		w := exporter.NewCSVWriter(filepath.Dir(path), logger)
		if err := w.ExportObservations(path, ds.Observations()); err != nil {
			return fmt.Errorf("export observations: %w", err)
		}
		fmt.Fprintf(out, "\nExported %d observations to %s\n", ds.Len(), path)
	}

	if failed := report.Failed(); len(failed) > 0 {
		return fmt.Errorf("%d of %d files failed to load", len(failed), len(report.Files))
	}
	return nil
}

func reportTable(report *ingest.Report) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"File", "Source", "Sheet", "Rows", "Skipped", "Duplicates", "Dropped columns", "Status"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, WidthMax: 40},
		{Number: 8, WidthMax: 60},
	})

	for _, f := range report.Files {
		status := "ok"
		if f.Failed() {
			status = f.Err.Error()
		} else if len(f.Warnings) > 0 {
			status = fmt.Sprintf("%d warnings", len(f.Warnings))
		}
		t.AppendRow(table.Row{
			f.Path, string(f.Source), f.Sheet, f.Rows, f.Skipped, f.Duplicates,
			strings.Join(f.DroppedColumns, ", "), status,
		})
	}
	t.AppendFooter(table.Row{"Total", "", "", report.Rows(), report.Skipped(), "", "", ""})
	return t
}

func dimensionsTable(dims domain.Dimensions) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Dimension", "Values"})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, WidthMax: 80}})

	regions := make([]string, 0, len(dims.Regions))
	for _, r := range dims.Regions {
		regions = append(regions, r.Code)
	}
	sources := make([]string, 0, len(dims.Sources))
	for _, s := range dims.Sources {
		sources = append(sources, string(s))
	}

	years := "none"
	if dims.Observations > 0 {
		years = fmt.Sprintf("%d to %d", dims.MinYear, dims.MaxYear)
	}

	t.AppendRows([]table.Row{
		{"Observations", dims.Observations},
		{"Years", years},
		{"Regions", strings.Join(regions, ", ")},
		{"Region groups", strings.Join(dims.RegionGroups, ", ")},
		{"Metrics", strings.Join(dims.Metrics, ", ")},
		{"Sources", strings.Join(sources, ", ")},
		{"Age bands", strings.Join(dims.AgeBands, ", ")},
		{"Genders", strings.Join(dims.Genders, ", ")},
		{"Educations", strings.Join(dims.Educations, ", ")},
	})
	return t
}

func render(out io.Writer, format string, t table.Writer) {
	if format == "markdown" {
		fmt.Fprintln(out, t.RenderMarkdown())
		return
	}
	fmt.Fprintln(out, t.Render())
}

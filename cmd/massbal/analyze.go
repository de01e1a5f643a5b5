package main

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/massbal/massbal/internal/export"
	"github.com/massbal/massbal/pkg/config"
	"github.com/massbal/massbal/pkg/massbalance"
	"github.com/massbal/massbal/pkg/record"
	"github.com/massbal/massbal/pkg/surface"
)

type analyzeOpts struct {
	path        string
	outputFmt   string
	failFast    bool
	concurrency int
	exportDest  string
	study       string
	strict      bool
}

func newAnalyzeCmd() *cobra.Command {
	var opts analyzeOpts

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Classify every sample in a CSV or JSON data file",
		Long: `Reads stressed sample records, computes mass balance metrics, classifies each
sample into a diagnostic zone and renders the assembled report.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.path = args[0]
			logger := newLogger(cmd)
			cfg, err := loadConfig(cmd, logger)
			if err != nil {
				return err
			}
			return runAnalyze(cmd, cfg, logger, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.outputFmt, "output", "o", "text", "Output format: text, json, markdown or csv")
	cmd.Flags().BoolVar(&opts.failFast, "fail-fast", false, "Stop at the first invalid row")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 1, "Number of rows processed in parallel")
	cmd.Flags().StringVar(&opts.exportDest, "export", "", "Export destination: local dir, s3://bucket/prefix or gs://bucket/prefix")
	cmd.Flags().StringVar(&opts.study, "study", "", "Study name used to group exported reports (default: API name or file name)")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Exit with status 2 if any row was rejected")

	return cmd
}

func runAnalyze(cmd *cobra.Command, cfg *config.Config, logger *logrus.Logger, opts analyzeOpts) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	renderer, err := surface.ForFormat(opts.outputFmt)
	if err != nil {
		return err
	}

	table, err := record.LoadFile(opts.path, record.Options{
		DefaultAssayRSD:    cfg.Input.DefaultAssayRSD,
		DefaultImpurityRSD: cfg.Input.DefaultImpurityRSD,
	})
	if err != nil {
		return err
	}
	if len(table.DegradantColumns) > 0 {
		logger.WithField("columns", strings.Join(table.DegradantColumns, ",")).Debug("Summed per-peak degradant columns")
	}

	engine, err := cfg.Engine(
		massbalance.WithFailFast(opts.failFast),
		massbalance.WithConcurrency(opts.concurrency),
		massbalance.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	report, err := engine.AssembleEntries(table.Entries())
	if err != nil {
		return err
	}

	if err := renderer.Render(cmd.OutOrStdout(), report); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}

	if dest := firstNonEmpty(opts.exportDest, cfg.Export.Destination); dest != "" {
		study := firstNonEmpty(opts.study, studyFromTable(table), strings.TrimSuffix(filepath.Base(opts.path), filepath.Ext(opts.path)))
		loc, err := exportReport(ctx, cfg, dest, study, report)
		if err != nil {
			return err
		}
		logger.WithFields(logrus.Fields{"location": loc, "study": study}).Info("Report exported")
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported report to %s\n", loc)
	}

	if opts.strict && len(report.Errors) > 0 {
		return &exitError{code: 2, msg: fmt.Sprintf("%d of %d rows rejected", len(report.Errors), len(report.Rows))}
	}
	return nil
}

func exportReport(ctx context.Context, cfg *config.Config, dest, study string, report *massbalance.Report) (string, error) {
	format := firstNonEmpty(cfg.Export.Format, "json")
	renderer, err := surface.ForFormat(format)
	if err != nil {
		return "", fmt.Errorf("export format: %w", err)
	}
	var buf bytes.Buffer
	if err := renderer.Render(&buf, report); err != nil {
		return "", fmt.Errorf("rendering export: %w", err)
	}

	store, err := export.Open(ctx, dest, export.S3Config{
		Region:   cfg.Export.S3Region,
		Endpoint: cfg.Export.S3Endpoint,
	})
	if err != nil {
		return "", fmt.Errorf("opening export destination: %w", err)
	}
	loc, err := export.Export(ctx, store, study, surface.Extension(format), buf.Bytes())
	if cerr := export.Close(store); cerr != nil && err == nil {
		return "", fmt.Errorf("closing export destination: %w", cerr)
	}
	if err != nil {
		return "", fmt.Errorf("exporting report: %w", err)
	}
	return loc, nil
}

func studyFromTable(t *record.Table) string {
	for _, r := range t.Records {
		if name := firstNonEmpty(r.APIName, r.APICode); name != "" {
			return name
		}
	}
	return ""
}

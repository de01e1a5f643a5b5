package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/massbal/massbal/pkg/config"
	"github.com/massbal/massbal/pkg/massbalance"
	"github.com/massbal/massbal/pkg/record"
)

type validateOpts struct {
	path       string
	normalized string
}

func newValidateCmd() *cobra.Command {
	var opts validateOpts

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a data file for binding errors and data-quality warnings without classifying",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.path = args[0]
			logger := newLogger(cmd)
			cfg, err := loadConfig(cmd, logger)
			if err != nil {
				return err
			}
			return runValidate(cmd, cfg, opts)
		},
	}

	cmd.Flags().StringVar(&opts.normalized, "normalized", "", "Write the valid rows as CSV with canonical column names to this path")

	return cmd
}

func runValidate(cmd *cobra.Command, cfg *config.Config, opts validateOpts) error {
	table, err := record.LoadFile(opts.path, record.Options{
		DefaultAssayRSD:    cfg.Input.DefaultAssayRSD,
		DefaultImpurityRSD: cfg.Input.DefaultImpurityRSD,
	})
	if err != nil {
		return err
	}
	rules := cfg.QualityRules()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d rows read from %s\n", len(table.Records), opts.path)
	if len(table.DegradantColumns) > 0 {
		fmt.Fprintf(out, "Degradant peaks summed: %s\n", strings.Join(table.DegradantColumns, ", "))
	}

	invalid := 0
	var clean []massbalance.SampleRecord
	for i, e := range table.Entries() {
		err := e.Err
		if err == nil {
			_, err = massbalance.Compute(e.Record)
		}
		if err != nil {
			invalid++
			fmt.Fprintf(out, "  row %d: invalid: %v\n", i, err)
			continue
		}
		clean = append(clean, e.Record)
		for _, w := range rules.Check(e.Record) {
			fmt.Fprintf(out, "  row %d: warning: %s\n", i, w)
		}
	}

	if opts.normalized != "" {
		if err := writeNormalized(opts.normalized, clean); err != nil {
			return err
		}
		fmt.Fprintf(out, "Normalized data (%d rows) written to %s\n", len(clean), opts.normalized)
	}

	if invalid > 0 {
		return &exitError{code: 2, msg: fmt.Sprintf("%d of %d rows invalid", invalid, len(table.Records))}
	}
	fmt.Fprintln(out, "OK")
	return nil
}

func writeNormalized(path string, records []massbalance.SampleRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating normalized output: %w", err)
	}
	if err := record.WriteCSV(f, records); err != nil {
		f.Close()
		return fmt.Errorf("writing normalized output: %w", err)
	}
	return f.Close()
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/massbal/massbal/pkg/massbalance"
)

func newZonesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "zones",
		Short: "Show zone thresholds and the configured recommendation for each zone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd)
			cfg, err := loadConfig(cmd, logger)
			if err != nil {
				return err
			}
			classifier, err := massbalance.NewClassifier(cfg.ClassifierThresholds())
			if err != nil {
				return err
			}
			resolver, err := cfg.Resolver()
			if err != nil {
				return err
			}

			th := classifier.Thresholds()
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Thresholds:")
			fmt.Fprintf(out, "  %-24s Z_MB <= %g\n", massbalance.ZoneNormal.Label(), th.NormalZMax)
			fmt.Fprintf(out, "  %-24s Z_MB <= %g\n", massbalance.ZoneAnalyticalVariability.Label(), th.ModerateZMax)
			fmt.Fprintf(out, "  %-24s AMB < 0, recovery ratio <= %g\n", massbalance.ZoneMissingDegradants.Label(), th.MissingDegradantRatio)
			fmt.Fprintf(out, "  %-24s AMB < 0, recovery ratio > %g\n", massbalance.ZonePhysicalLoss.Label(), th.MissingDegradantRatio)
			fmt.Fprintf(out, "  %-24s AMB > 0\n", massbalance.ZoneOverestimation.Label())
			fmt.Fprintf(out, "  %-24s |Z_MB| > %g\n", "Significant", th.SignificanceZ)
			fmt.Fprintln(out)

			fmt.Fprintln(out, "Recommendations:")
			table := resolver.Table()
			for _, zone := range massbalance.Zones() {
				rec := table[zone]
				fmt.Fprintf(out, "  %s [%s]\n", zone.Label(), rec.Urgency)
				fmt.Fprintf(out, "    %s\n", rec.Interpretation)
				fmt.Fprintf(out, "    -> %s\n", rec.Action)
			}
			return nil
		},
	}
}

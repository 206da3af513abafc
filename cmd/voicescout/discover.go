package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"voicescout/internal/codec"
	"voicescout/internal/service"
)

var (
	discoverFast   bool
	discoverFormat string
	discoverSeeds  []string

	discoverCmd = &cobra.Command{
		Use:   "discover",
		Short: "Find and verify speech servers",
		Long: `Check the seeds first, then plan, scan and verify the local segments.

With --fast the scan is skipped when the seeds already answered: every
configured seed verified, or at least two servers verified.`,
		Args: cobra.NoArgs,
		RunE: runDiscover,
	}
)

func init() {
	discoverCmd.Flags().BoolVarP(&discoverFast, "fast", "f", false, "skip the scan when the seeds are enough")
	discoverCmd.Flags().StringVarP(&discoverFormat, "format", "o", "table", "output format: json, yaml, table")
	discoverCmd.Flags().StringSliceVarP(&discoverSeeds, "seed", "s", nil, "extra seed address or host name (repeatable)")
}

func runDiscover(cmd *cobra.Command, _ []string) error {
	exporter, err := codec.ForFormat(discoverFormat)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if len(discoverSeeds) > 0 {
		cc := a.catalogConfig()
		cc.Seeds = append(cc.Seeds, discoverSeeds...)
		a.catalog.Reconfigure(cc)
	}

	fast := discoverFast || a.cfg.Scan.Fast
	report, err := a.catalog.Refresh(cmd.Context(), fast)
	if err != nil {
		return err
	}

	if err := exporter.Export(report.Servers, cmd.OutOrStdout()); err != nil {
		return err
	}
	printReportSummary(report)
	return nil
}

// printReportSummary writes a one-line summary to stderr so stdout stays parseable
func printReportSummary(r *service.Report) {
	how := fmt.Sprintf("scanned %s addresses", humanize.Comma(int64(r.Scanned)))
	if r.FastExit {
		how = "fast exit after seed check"
	}
	fmt.Fprintf(os.Stderr, "%s found in %s (%s, %d live)\n",
		pluralize(len(r.Servers), "server"), r.Duration.Round(10*time.Millisecond), how, r.LiveHosts)
}

func pluralize(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return humanize.Comma(int64(n)) + " " + word + "s"
}

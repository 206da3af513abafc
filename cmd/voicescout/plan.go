package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"voicescout/internal/domain"
)

var (
	planCmd = &cobra.Command{
		Use:   "plan",
		Short: "Show which segments a discovery would scan",
		Args:  cobra.NoArgs,
		RunE:  runPlan,
	}

	adaptersCmd = &cobra.Command{
		Use:   "adapters",
		Short: "List the local network adapters discovery scans from",
		Args:  cobra.NoArgs,
		RunE:  runAdapters,
	}
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

func runPlan(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := a.catalog.Config()
	plan := a.catalog.Discovery().Plan(cfg)

	out := cmd.OutOrStdout()
	if plan.Empty() {
		fmt.Fprintln(out, "Nothing to scan: no qualifying adapters.")
		return nil
	}

	t := newTable("SEGMENT", "CATEGORY", "MODE", "RANGES", "ADDRESSES", "REASON")
	for _, target := range plan.Targets {
		t.Row(target.Segment.String(), string(target.Classification.Category), string(target.Mode),
			formatRanges(target.Ranges), humanize.Comma(int64(target.Count())), target.Classification.Reason)
	}
	for _, s := range plan.Skipped {
		t.Row(s.Segment.String(), string(s.Classification.Category), string(s.Classification.Mode),
			"-", "0", s.Classification.Reason)
	}
	fmt.Fprintln(out, t.Render())

	label := ""
	if plan.Fallback {
		label = " (default segments)"
	}
	fmt.Fprintf(out, "%s addresses, about %s with %d workers%s\n",
		humanize.Comma(int64(plan.Estimate.TotalAddresses)), plan.Estimate.Duration(), cfg.MaxConcurrentProbes, label)
	return nil
}

func formatRanges(ranges []domain.OctetRange) string {
	parts := make([]string, len(ranges))
	for i, r := range ranges {
		parts[i] = fmt.Sprintf(".%d-.%d", r.Start, r.End)
	}
	return strings.Join(parts, ", ")
}

func runAdapters(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	adapters := a.catalog.Discovery().Adapters()
	out := cmd.OutOrStdout()
	if len(adapters) == 0 {
		fmt.Fprintln(out, "No qualifying network adapters.")
		return nil
	}

	t := newTable("NAME", "KIND", "CONNECTED", "ADDRESSES")
	for _, ad := range adapters {
		addrs := make([]string, len(ad.Addresses))
		for i, addr := range ad.Addresses {
			addrs[i] = addr.String()
		}
		t.Row(ad.Name, string(ad.Kind), fmt.Sprint(ad.Connected), strings.Join(addrs, ", "))
	}
	fmt.Fprintln(out, t.Render())
	return nil
}

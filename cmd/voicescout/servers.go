package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"voicescout/internal/codec"
	"voicescout/internal/domain"
)

var (
	serversFormat string
	serversForget string
	runsLimit     int

	serversCmd = &cobra.Command{
		Use:   "servers",
		Short: "List servers remembered from earlier discoveries",
		Args:  cobra.NoArgs,
		RunE:  runServers,
	}

	runsCmd = &cobra.Command{
		Use:   "runs",
		Short: "List recent discovery runs",
		Args:  cobra.NoArgs,
		RunE:  runRuns,
	}
)

func init() {
	serversCmd.Flags().StringVarP(&serversFormat, "format", "o", "table", "output format: json, yaml, table")
	serversCmd.Flags().StringVar(&serversForget, "forget", "", "remove a remembered server by address")
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 10, "number of runs to show (0 for all)")
}

func runServers(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	if serversForget != "" {
		if err := a.catalog.Forget(cmd.Context(), serversForget); err != nil {
			return fmt.Errorf("forget %s: %w", serversForget, err)
		}
		fmt.Fprintf(out, "Forgot %s\n", serversForget)
		return nil
	}

	stored, err := a.catalog.Servers(cmd.Context())
	if err != nil {
		return err
	}

	// The table view adds sighting history; other formats export the servers
	if serversFormat != "table" {
		exporter, err := codec.ForFormat(serversFormat)
		if err != nil {
			return err
		}
		servers := make([]domain.VerifiedServer, len(stored))
		for i, s := range stored {
			servers[i] = s.VerifiedServer
		}
		return exporter.Export(servers, out)
	}

	if len(stored) == 0 {
		fmt.Fprintln(out, "No servers remembered yet. Run `voicescout discover` first.")
		return nil
	}

	t := newTable("ADDRESS", "WEB", "SYNTH", "VOICES", "LAST SEEN", "FIRST SEEN", "SEEN")
	for _, s := range stored {
		t.Row(s.Key(), domain.FormatPort(s.WebPort), domain.FormatPort(s.SynthPort),
			codec.VoiceSummary(s.Voices), humanize.Time(s.LastSeen), humanize.Time(s.FirstSeen),
			strconv.Itoa(s.TimesSeen))
	}
	fmt.Fprintln(out, t.Render())
	return nil
}

func runRuns(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	runs, err := a.catalog.Runs(cmd.Context(), runsLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No discovery runs recorded.")
		return nil
	}

	t := newTable("RUN", "STARTED", "TOOK", "MODE", "ADDRESSES", "LIVE", "SERVERS")
	for _, r := range runs {
		mode := "full"
		switch {
		case r.FastExit:
			mode = "fast exit"
		case r.Fast:
			mode = "fast"
		case r.Fallback:
			mode = "fallback"
		}
		id := r.ID
		if len(id) > 8 {
			id = id[:8]
		}
		t.Row(id, humanize.Time(r.StartedAt), r.Duration.Round(time.Millisecond).String(), mode,
			humanize.Comma(int64(r.Addresses)), strconv.Itoa(r.LiveHosts), strconv.Itoa(r.Servers))
	}
	fmt.Fprintln(out, t.Render())
	return nil
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"voicescout/internal/codec"
	"voicescout/internal/domain"
)

var (
	verifyFormat string

	verifyCmd = &cobra.Command{
		Use:   "verify <address>",
		Short: "Probe and verify a single address",
		Args:  cobra.ExactArgs(1),
		RunE:  runVerify,
	}
)

func init() {
	verifyCmd.Flags().StringVarP(&verifyFormat, "format", "o", "table", "output format: json, yaml, table")
}

func runVerify(cmd *cobra.Command, args []string) error {
	exporter, err := codec.ForFormat(verifyFormat)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	server, ok, err := a.catalog.Verify(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s is not a speech server", args[0])
	}
	return exporter.Export([]domain.VerifiedServer{server}, cmd.OutOrStdout())
}

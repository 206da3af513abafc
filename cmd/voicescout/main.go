// Command voicescout finds speech-synthesis servers on the local network.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version is set at build time
	Version = "dev"

	configFile string

	rootCmd = &cobra.Command{
		Use:           "voicescout",
		Short:         "Find speech-synthesis servers on the local network",
		Long:          "voicescout probes local network segments for speech servers on ports 7860 and 9880 and verifies them.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default: search VOICESCOUT_CONFIG, ./voicescout.yaml, XDG paths)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: text, json, logfmt")
	flags.String("log-file", "", "write logs to a rotating file instead of stderr")
	flags.String("db", "", "history database path (\"none\" disables history)")
	flags.String("backend", "", "scanner backend: native, nmap, auto")

	_ = viper.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = viper.BindPFlag("log.file", flags.Lookup("log-file"))
	_ = viper.BindPFlag("db", flags.Lookup("db"))
	_ = viper.BindPFlag("backend", flags.Lookup("backend"))

	rootCmd.AddCommand(discoverCmd, planCmd, adaptersCmd, verifyCmd, serversCmd, runsCmd, serveCmd, configCmd)
}

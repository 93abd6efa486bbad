// Command netdemo drives the delta-snapshot session core without a real
// game attached: internal/simdemo supplies synthetic cubes, and each
// subcommand wires them through a different transport.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "netdemo",
		Short:         "Delta-compressed snapshot networking demo",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		loopbackCmd(),
		serveCmd(),
		connectCmd(),
		benchCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("netdemo %s (%s)\n", version, commit)
		},
	}
}

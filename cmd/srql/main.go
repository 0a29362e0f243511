package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/carverauto/srql/internal/version"
)

func main() {
	cmd := NewSRQLCommand()
	if err := cmd.Execute(); err != nil {
		klog.ErrorS(err, "srql exited")
		klog.Flush()
		os.Exit(1)
	}
	klog.Flush()
}

// NewSRQLCommand creates the root command with its subcommands.
func NewSRQLCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "srql",
		Short: "SRQL - the ServiceRadar query engine",
		Long: `SRQL parses the ServiceRadar query language, compiles it to
parameterized SQL, and serves results over HTTP with cursor pagination.

Configuration comes from SRQL_* environment variables; see the serve
subcommand for the recognized keys.`,
	}

	klogFlags := flag.NewFlagSet("klog", flag.ExitOnError)
	klog.InitFlags(klogFlags)
	cmd.PersistentFlags().AddGoFlagSet(klogFlags)

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewVersionCommand())
	return cmd
}

// NewVersionCommand prints build information.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Get().String())
		},
	}
}

// Command teammatch reads a JSON roster, assigns participants to teams
// under the size, preference, conflict, and skill constraints implemented
// by internal/assign, and writes the resulting partition as JSON.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "teammatch [roster.json]",
		Short: "Assign students to project teams under size, preference, conflict, and skill constraints",
		Long: `teammatch reads a JSON array of roster rows (from a file argument, or
stdin if omitted), solves the team assignment problem with a branch-and-bound
MILP solver, and writes the resulting partition as JSON to stdout.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runAssign,
	}

	flags := root.PersistentFlags()
	flags.Int("workers", 6, "number of concurrent branch-and-bound search workers")
	flags.Duration("max-time", defaultMaxTime, "time budget for the solve before giving up")
	flags.Int("size-min", 3, "minimum participants per team")
	flags.Int("size-max", 4, "maximum participants per team")
	flags.String("log-level", "info", "logrus level: debug, info, warn, error")
	flags.String("dot-out", "", "optional path to write a DOT rendering of the enumeration tree")

	viper.BindPFlag("workers", flags.Lookup("workers"))
	viper.BindPFlag("max-time", flags.Lookup("max-time"))
	viper.BindPFlag("size-min", flags.Lookup("size-min"))
	viper.BindPFlag("size-max", flags.Lookup("size-max"))
	viper.BindPFlag("log-level", flags.Lookup("log-level"))
	viper.BindPFlag("dot-out", flags.Lookup("dot-out"))
	viper.SetEnvPrefix("TEAMMATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	return root
}

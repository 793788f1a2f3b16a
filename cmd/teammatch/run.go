package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/perryzjc/teammatch/internal/assign"
	"github.com/perryzjc/teammatch/internal/ilp"
	"github.com/perryzjc/teammatch/internal/roster"
)

// defaultMaxTime is the CLI's own default for the solve time budget.
// internal/assign.Config.MaxTime has no library-side default: a caller must
// decide how long it is willing to wait.
const defaultMaxTime = 8 * time.Hour

func runAssign(cmd *cobra.Command, args []string) error {
	log := logrus.New()
	level, err := logrus.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return fmt.Errorf("teammatch: invalid --log-level: %w", err)
	}
	log.SetLevel(level)

	var in io.Reader = os.Stdin
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("teammatch: opening roster file: %w", err)
		}
		defer f.Close()
		in = f
	}

	var raw []roster.Raw
	if err := json.NewDecoder(in).Decode(&raw); err != nil {
		return fmt.Errorf("teammatch: decoding roster JSON: %w", err)
	}

	participants, _, err := roster.Normalize(raw, log.WithField("component", "roster"))
	if err != nil {
		return fmt.Errorf("teammatch: normalizing roster: %w", err)
	}

	var instrumentation ilp.BnbMiddleware
	var treeLogger *ilp.TreeLogger
	dotOut := viper.GetString("dot-out")
	if dotOut != "" {
		treeLogger = ilp.NewTreeLogger()
		instrumentation = treeLogger
	}

	cfg := assign.Config{
		SizeMin:         viper.GetInt("size-min"),
		SizeMax:         viper.GetInt("size-max"),
		MaxTime:         viper.GetDuration("max-time"),
		Workers:         viper.GetInt("workers"),
		Log:             log,
		Instrumentation: instrumentation,
	}

	partition, err := assign.Run(context.Background(), participants, cfg)
	if err != nil {
		return fmt.Errorf("teammatch: %w", err)
	}

	if treeLogger != nil {
		f, err := os.Create(dotOut)
		if err != nil {
			return fmt.Errorf("teammatch: writing dot output: %w", err)
		}
		defer f.Close()
		treeLogger.ToDOT(f)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(partition)
}

// Package main is a minimal cobra-based CLI exposing the consensus
// core's entry points — validate a stored block, apply it — wired against
// the bbolt-backed storekv.DB. It is host-side wiring, not part of the
// core.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	dataDir    string
	chainIDHex string
	logLevel   string

	rootCmd = &cobra.Command{
		Use:   "coinjecture-consensusd",
		Short: "Validate and apply COINjecture blocks against a local state store",
	}
)

func newLogger() *zap.Logger {
	var cfg zap.Config
	switch logLevel {
	case "debug":
		cfg = zap.NewDevelopmentConfig()
	default:
		cfg = zap.NewProductionConfig()
		// "warn"/"error" raise the threshold; an unrecognised value keeps info.
		_ = cfg.Level.UnmarshalText([]byte(logLevel))
	}
	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "chain state directory (default: ~/.coinjecture)")
	rootCmd.PersistentFlags().StringVar(&chainIDHex, "chain-id", "", "64-hex-char chain identifier")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug|info|warn|error")
	rootCmd.AddCommand(validateCmd, applyCmd)
}

// Execute runs the CLI, exiting the process on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}

package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/nimasrn/denitracker/internal/app"
	"github.com/nimasrn/denitracker/internal/config"
	"github.com/nimasrn/denitracker/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

var envPath string

var rootCmd = &cobra.Command{
	Use:   "deni",
	Short: "Offline-first debt ledger for a small shop",
	Long: `deni keeps customers, items, debts and payments on this device and
syncs them with the ledger server whenever it can be reached.

Writes made while offline are queued locally and replayed in order on the
next sync.`,
	Version:           version + " (" + commit + ")",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envPath, "env", "", "path to an env file with configuration")
}

func setup(cmd *cobra.Command, args []string) error {
	if err := config.Load(envPath); err != nil {
		return err
	}
	cfg := config.Get()
	_, err := logger.Setup(logger.Options{
		Env:   cfg.AppEnv,
		Level: cfg.LogLevel,
		File:  cfg.LogFile,
	})
	return err
}

// openApp builds the client and loads every store. Callers must Close it.
func openApp(ctx context.Context) (*app.App, error) {
	a, err := app.New(ctx, config.Get())
	if err != nil {
		return nil, err
	}
	if err := a.Load(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	err := rootCmd.Execute()
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

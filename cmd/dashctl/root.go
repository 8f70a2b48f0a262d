package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"hoteldash/internal/cli"
	"hoteldash/internal/config"
	"hoteldash/internal/log"
)

var (
	dbPath  string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "dashctl",
	Short: "dashctl computes hotel dashboard views and manages the metrics store",
	Long: "dashctl runs the dashboard aggregation engine offline over payload or CSV files, " +
		"ingests daily rows into the SQLite store and manages its schema migrations.",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cli.LoadEnvFile()
		if verbose {
			os.Setenv("LOG_LEVEL", "debug")
		}
		cli.SetupLogger(log.ComponentApp)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite database (default SQLITE_DB_PATH)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func resolveDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	return config.Load().SQLiteDBPath
}

// openInput returns stdin for "-" or an empty path.
func openInput(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"hoteldash/internal/core"
	"hoteldash/internal/log"
	"hoteldash/internal/services"
	"hoteldash/internal/source"
	"hoteldash/internal/storage"
)

var (
	ingestFile      string
	ingestDimension string
	ingestStrict    bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Store daily rows from a CSV export in the SQLite database",
	Long: "Rows are stored pending sync; a running sync-worker mirrors them to Google Sheets " +
		"on its next backlog pass.",
	RunE: func(cmd *cobra.Command, args []string) error {
		dim := core.Dimension(strings.ToLower(ingestDimension))
		if dim != "" && !dim.IsValid() {
			return fmt.Errorf("%w %q", core.ErrInvalidDimension, ingestDimension)
		}

		in, err := openInput(ingestFile)
		if err != nil {
			return err
		}
		defer in.Close()

		rows, invalid, err := source.ReadCSV(in, dim)
		if err != nil {
			return err
		}
		for _, rowErr := range invalid {
			fmt.Fprintf(cmd.ErrOrStderr(), "invalid %v\n", rowErr)
		}
		if ingestStrict && len(invalid) > 0 {
			return fmt.Errorf("%d invalid rows, nothing stored", len(invalid))
		}

		repo, err := storage.NewSQLiteRepository(resolveDBPath())
		if err != nil {
			return err
		}
		ingest := services.NewIngestService(repo, nil, log.FromContext(cmd.Context()).WithComponent(log.ComponentIngest))
		defer ingest.Close()

		result, err := ingest.Ingest(cmd.Context(), rows)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Stored %d rows (%d skipped)\n", result.Rows, len(invalid))
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestFile, "file", "f", "", "CSV file (\"-\" or empty for stdin)")
	ingestCmd.Flags().StringVar(&ingestDimension, "dimension", "", "Dimension for rows without a dimension column")
	ingestCmd.Flags().BoolVar(&ingestStrict, "strict", false, "Reject the file when any row is invalid")
	rootCmd.AddCommand(ingestCmd)
}

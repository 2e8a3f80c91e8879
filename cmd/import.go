package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/horeca-group/horeca-cli/internal/ingest"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import venues from a CSV or XLSX export",
	Long: `Reads a spreadsheet of venues and inserts them into the store.

Column headers are matched case-insensitively and accept the Spanish
aliases used by common export tools (nombre, dirección, valoración, ...).
Rows that fail validation are skipped and reported; the rest import.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return eris.Wrap(err, "import: init store")
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "import: migrate store")
		}

		summary, err := ingest.NewImporter(st).ImportFile(ctx, args[0])
		if err != nil {
			return eris.Wrapf(err, "import: %s", args[0])
		}

		zap.L().Info("import complete",
			zap.String("file", args[0]),
			zap.Int("imported", summary.Imported),
			zap.Int("skipped", summary.Skipped),
		)
		for _, rowErr := range summary.Errors {
			zap.L().Warn("skipped row", zap.Error(rowErr))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}

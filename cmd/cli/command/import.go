package command

import (
	"fmt"

	"yamdb/database"
	"yamdb/internal/importer"

	"github.com/spf13/cobra"
)

var importDir string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load the CSV fixtures from a directory",
	Long: `Loads users.csv, category.csv, genre.csv, titles.csv, genre_title.csv,
review.csv and comments.csv from --dir in a single transaction. Missing files
are skipped; any bad row aborts the whole import.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close(db)

		report, err := importer.New(db).ImportDir(cmd.Context(), importDir)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		success.Fprintln(cmd.OutOrStdout(), "✓ Import finished:", report)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importDir, "dir", "static/data", "directory with the CSV fixtures")
	rootCmd.AddCommand(importCmd)
}

package cmd

import (
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill an empty catalog with demo data",
	Long: `Create the demo teachers, students, categories and courses in a single
unit of work. Fails if the catalog already has categories.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := rt.catalog.Seed(cmd.Context()); err != nil {
			return err
		}
		return formatter(cmd).FormatResult("Seeded catalog", map[string]bool{"seeded": true})
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

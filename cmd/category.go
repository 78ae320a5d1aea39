package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/georgekorob/patterns-project/internal/presentation"
)

var (
	categoryParent int64
	categoryTree   bool
)

var categoryCmd = &cobra.Command{
	Use:   "category",
	Short: "List and create categories",
}

var categoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories with their course counts",
	Long: `List every category with its course count. The count includes the
courses of the parent category chain.

Examples:
  catalog category list
  catalog category list --tree
  catalog category list --json | jq '.[].name'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		summaries, err := rt.catalog.Categories(cmd.Context())
		if err != nil {
			return err
		}
		dtos := presentation.FromCategorySummaries(summaries)
		if categoryTree {
			return formatter(cmd).FormatCategoryTree(dtos)
		}
		return formatter(cmd).FormatCategories(dtos)
	},
}

var categoryCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a category",
	Long: `Create a category, optionally nested under a parent.

Examples:
  catalog category create Music
  catalog category create Jazz --parent 5`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, err := rt.catalog.CreateCategory(cmd.Context(), args[0], categoryParent)
		if err != nil {
			return err
		}
		dto := presentation.CategoryDTO{ID: category.ID(), Name: category.Name, ParentID: categoryParent}
		return formatter(cmd).FormatResult(fmt.Sprintf("Created category %d (%s)", dto.ID, dto.Name), dto)
	},
}

func init() {
	categoryListCmd.Flags().BoolVar(&categoryTree, "tree", false, "Print categories nested under their parents")
	categoryCreateCmd.Flags().Int64Var(&categoryParent, "parent", 0, "Parent category id")
	categoryCmd.AddCommand(categoryListCmd, categoryCreateCmd)
	rootCmd.AddCommand(categoryCmd)
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/georgekorob/patterns-project/internal/log"
	"github.com/georgekorob/patterns-project/internal/presentation"
	"github.com/georgekorob/patterns-project/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the category tree whenever the database changes",
	Long: `Print the category tree, then print it again every time the database
file is written, including writes made by other catalog processes.
Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := watcher.New(watcher.Config{
		DBPath:   rt.db.Path(),
		Debounce: cfg.Watch.Debounce,
	}, rt.logger)
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	changes, err := w.Start()
	if err != nil {
		return err
	}

	printTree := func(ctx context.Context) error {
		if err := rt.catalog.Refresh(ctx); err != nil {
			return err
		}
		summaries, err := rt.catalog.Categories(ctx)
		if err != nil {
			return err
		}
		return formatter(cmd).FormatCategoryTree(presentation.FromCategorySummaries(summaries))
	}
	return watchLoop(ctx, changes, printTree, rt.logger)
}

// watchLoop calls render once and again after every change signal until
// ctx is done or changes is closed. Render failures are logged, not fatal.
func watchLoop(ctx context.Context, changes <-chan struct{}, render func(context.Context) error, logger *log.Logger) error {
	if err := render(ctx); err != nil {
		return fmt.Errorf("rendering categories: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			if err := render(ctx); err != nil {
				logger.ErrorErr(log.CatCLI, "Re-render failed", err)
			}
		}
	}
}

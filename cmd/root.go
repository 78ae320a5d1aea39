package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/georgekorob/patterns-project/internal/catalog"
	"github.com/georgekorob/patterns-project/internal/config"
	"github.com/georgekorob/patterns-project/internal/infrastructure/sqlite"
	"github.com/georgekorob/patterns-project/internal/log"
	"github.com/georgekorob/patterns-project/internal/mapper"
	"github.com/georgekorob/patterns-project/internal/paths"
	"github.com/georgekorob/patterns-project/internal/presentation"
	"github.com/georgekorob/patterns-project/internal/tracing"
)

// Commands carrying this annotation run without opening the database.
const noStoreAnnotation = "no-store"

const localConfigPath = ".catalog/config.yaml"

var (
	version  = "dev"
	cfgFile  string
	dbPath   string
	jsonFlag bool
	cfg      config.Config
	rt       *appContext
)

var rootCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the course catalog database",
	Long: `Manage teachers, students, categories and courses stored in a SQLite
catalog database.

Every write goes through a unit of work that is committed in one pass:
inserts first, then updates, then deletes.`,
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .catalog/config.yaml, then ~/.config/catalog/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "",
		"path to the catalog database (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false,
		"print output as JSON")
}

// appContext holds everything opened for a single command invocation.
type appContext struct {
	logger  *log.Logger
	tracing *tracing.Provider
	db      *sqlite.DB
	catalog *catalog.Service
}

func (r *appContext) close(ctx context.Context) error {
	var errs []error
	if r.catalog != nil {
		r.catalog.Close()
	}
	if r.db != nil {
		errs = append(errs, r.db.Close())
	}
	if r.tracing != nil {
		errs = append(errs, r.tracing.Shutdown(ctx))
	}
	if r.logger != nil {
		errs = append(errs, r.logger.Close())
	}
	return errors.Join(errs...)
}

// resolveConfigPath returns the config file to read. An empty result means
// defaults and environment only.
func resolveConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if _, err := os.Stat(localConfigPath); err == nil {
		return localConfigPath
	}
	if home, err := os.UserHomeDir(); err == nil {
		userPath := filepath.Join(home, ".config", "catalog", "config.yaml")
		if _, err := os.Stat(userPath); err == nil {
			return userPath
		}
	}
	return ""
}

func setup(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(viper.New(), resolveConfigPath())
	if err != nil {
		return err
	}
	if dbPath != "" {
		loaded.Database.Path = dbPath
	}
	loaded.Database.Path = paths.ResolveDatabase(loaded.Database.Path)
	cfg = loaded

	if cmd.Annotations[noStoreAnnotation] != "" {
		return nil
	}

	r, err := openRuntime(cfg)
	if err != nil {
		return err
	}
	rt = r
	return nil
}

func openRuntime(c config.Config) (*appContext, error) {
	r := &appContext{logger: log.Nop()}

	if c.Log.Enabled {
		level, err := log.ParseLevel(c.Log.Level)
		if err != nil {
			return nil, err
		}
		logger, err := log.Open(c.Log.Path, log.WithLevel(level))
		if err != nil {
			return nil, fmt.Errorf("opening log: %w", err)
		}
		r.logger = logger
	}

	provider, err := tracing.NewProvider(tracing.Config{
		Enabled:      c.Tracing.Enabled,
		Exporter:     c.Tracing.Exporter,
		FilePath:     c.Tracing.FilePath,
		OTLPEndpoint: c.Tracing.OTLPEndpoint,
		SampleRate:   c.Tracing.SampleRate,
		ServiceName:  c.Tracing.ServiceName,
	})
	if err != nil {
		_ = r.close(context.Background())
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}
	r.tracing = provider

	driver, err := sqlite.ParseDriver(c.Database.Driver)
	if err != nil {
		_ = r.close(context.Background())
		return nil, err
	}
	db, err := sqlite.NewDB(c.Database.Path,
		sqlite.WithDriver(driver),
		sqlite.WithBusyTimeout(c.Database.BusyTimeout),
		sqlite.WithLogger(r.logger),
		sqlite.WithTracer(provider.Tracer()),
	)
	if err != nil {
		_ = r.close(context.Background())
		return nil, fmt.Errorf("opening database: %w", err)
	}
	r.db = db
	r.catalog = catalog.New(db,
		catalog.WithLogger(r.logger),
		catalog.WithCacheTTL(c.Cache.TTL),
	)
	r.logger.Debug(log.CatCLI, "Runtime ready", "db", c.Database.Path, "driver", string(driver))
	return r, nil
}

func closeRuntime() error {
	if rt == nil {
		return nil
	}
	err := rt.close(context.Background())
	rt = nil
	return err
}

func formatter(cmd *cobra.Command) *presentation.Formatter {
	return presentation.NewFormatter(cmd.OutOrStdout(), jsonFlag)
}

// userError rewrites storage errors into messages for the terminal.
func userError(err error) error {
	var notFound *mapper.RecordNotFoundError
	if errors.As(err, &notFound) {
		if notFound.ID == 0 {
			return fmt.Errorf("not found: no %s records", notFound.Table)
		}
		return fmt.Errorf("not found: %s %d", notFound.Table, notFound.ID)
	}
	if errors.Is(err, catalog.ErrAlreadySeeded) {
		return fmt.Errorf("catalog already seeded: %w", err)
	}
	return err
}

// Execute runs the root command
func Execute() error {
	err := rootCmd.Execute()
	if closeErr := closeRuntime(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", userError(err))
	}
	return err
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

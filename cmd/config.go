package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/georgekorob/patterns-project/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create or edit the config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [PATH]",
	Short: "Write a config file with the default settings",
	Long: `Write a commented config file with the default settings. PATH defaults
to --config, or .catalog/config.yaml.`,
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{noStoreAnnotation: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configTarget(args)
		if err := config.WriteDefaultConfig(path); err != nil {
			return err
		}
		return formatter(cmd).FormatResult("Wrote "+path, map[string]string{"path": path})
	},
}

var configSetDBCmd = &cobra.Command{
	Use:   "set-db DB_PATH",
	Short: "Store the database path in the config file",
	Long: `Set database.path in the config file, keeping the rest of the file and
its comments. The file is created if it does not exist.`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{noStoreAnnotation: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configTarget(nil)
		if err := config.SaveDatabasePath(path, args[0]); err != nil {
			return err
		}
		return formatter(cmd).FormatResult(fmt.Sprintf("Set database.path to %s in %s", args[0], path),
			map[string]string{"path": path, "database": args[0]})
	},
}

func configTarget(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	if cfgFile != "" {
		return cfgFile
	}
	return localConfigPath
}

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print the version",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{noStoreAnnotation: "true"},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return formatter(cmd).FormatResult("catalog "+version, map[string]string{"version": version})
	},
}

func init() {
	configCmd.AddCommand(configInitCmd, configSetDBCmd)
	rootCmd.AddCommand(configCmd, versionCmd)
}

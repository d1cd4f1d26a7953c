package cmd

import (
	"fmt"
	"os"

	"journal/config"
	"journal/logger"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

var (
	cfgFile           string
	dbPath            string // Bound to --dbpath flag
	appLogPathFlag    string
	accessLogPathFlag string
	logLevelFlag      string

	// injector is built once per invocation in PersistentPreRunE.
	injector *do.RootScope
)

var rootCmd = &cobra.Command{
	Use:   "journal",
	Short: "A personal learning journal",
	Long: `journal keeps dated notes on what you learned, how long it took and where you
learned it, labelled with free-text tags.

Run 'journal server' for the JSON API, or use the entry, tag and user commands to
work with the database directly.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(cfgFile, appLogPathFlag, accessLogPathFlag, logLevelFlag); err != nil {
			return fmt.Errorf("failed to initialize config in PersistentPreRunE: %w", err)
		}

		finalDBPath, err := resolveDBPath()
		if err != nil {
			return err
		}
		logger.Debug("PersistentPreRunE: Using database path '%s'", finalDBPath)

		injector = newContainer(finalDBPath)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		shutdownContainer()
	},
}

// resolveDBPath prefers --dbpath over database.path from the config.
func resolveDBPath() (string, error) {
	if dbPath != "" {
		expanded, err := config.ExpandTilde(dbPath)
		if err != nil {
			logger.Error("Error expanding tilde in --dbpath flag '%s': %v. Using original.", dbPath, err)
			return dbPath, nil
		}
		return expanded, nil
	}
	if config.AppConfig.Database.Path == "" {
		return "", fmt.Errorf("no database path configured: set database.path or pass --dbpath")
	}
	return config.AppConfig.Database.Path, nil
}

func shutdownContainer() {
	if injector == nil {
		return
	}
	if err := injector.Shutdown(); err != nil {
		logger.Error("Shutdown error: %v", err)
	}
	injector = nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		shutdownContainer()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/journal/config.yaml or ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "dbpath", "", "path to SQLite database file (overrides config/default)")
	rootCmd.PersistentFlags().StringVar(&appLogPathFlag, "app-log", "", "path for the application log file (overrides config/default)")
	rootCmd.PersistentFlags().StringVar(&accessLogPathFlag, "access-log", "", "path for the HTTP access log file (overrides config/default)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level: DEBUG, INFO, WARN, ERROR (overrides config/default)")
}

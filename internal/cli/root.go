package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AI2HU/gosimon/internal/config"
	"github.com/AI2HU/gosimon/internal/db"
	"github.com/AI2HU/gosimon/internal/logger"
)

const configPathEnv = "GOSIMON_CONFIG_PATH"

var (
	cfgFile  string
	logLevel string
	prefixes []string
	settings *config.Settings
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "gosimon",
	Short: "MongoDB bootstrap for gin applications",
	Long: `Gosimon wires a MongoDB connection into a gin application from flat
configuration keys (MONGO_URI or MONGO_HOST/MONGO_PORT/MONGO_DBNAME),
routes ObjectId path segments and answers unknown documents with 404.

It ships with a small entries/users application to exercise all of it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip init for the init command itself
		if cmd.Name() == "init" {
			return nil
		}

		var err error
		settings, err = loadSettings()
		if err != nil {
			return err
		}

		level := logLevel
		if level == "" {
			level = settings.String(config.KeyLogLevel)
		}
		logger.Init(logger.ParseLogLevel(level), os.Stderr)

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.GetLogger().Sync()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.gosimon/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warning, error); overrides LOG_LEVEL")
	rootCmd.PersistentFlags().StringSliceVar(&prefixes, "prefix", []string{config.DefaultPrefix}, "settings prefixes to connect, one connection each")

	// Disable completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(serveCmd)
}

// configPath picks --config, then $GOSIMON_CONFIG_PATH, then the default
// location. explicit is false only for the default location.
func configPath() (path string, explicit bool) {
	if cfgFile != "" {
		return cfgFile, true
	}
	if envPath := os.Getenv(configPathEnv); envPath != "" {
		return envPath, true
	}
	return config.GetConfigPath(), false
}

// loadSettings reads the config file and the environment. Only the default
// config file may be missing; env-only setups rely on that.
func loadSettings() (*config.Settings, error) {
	path, explicit := configPath()
	if explicit && !config.Exists(path) {
		return nil, fmt.Errorf("configuration file not found at %s", path)
	}

	s, err := config.LoadSettings(path, prefixes...)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return s, nil
}

// aliasFor names the connection opened for the i-th prefix. The first one
// is the default connection; the others are named after their prefix.
func aliasFor(i int, prefix string) string {
	if i == 0 {
		return db.DefaultAlias
	}
	return strings.ToLower(prefix)
}

// appName returns APP_NAME, falling back to the binary name
func appName(s *config.Settings) string {
	if name := s.String(config.KeyAppName); name != "" {
		return name
	}
	return rootCmd.Name()
}

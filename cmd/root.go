package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"growthkit/internal/config"
	"growthkit/internal/logger"
	"growthkit/internal/store"
)

var (
	logLevel       string
	dotenvMode     string
	dotenvOverride bool
	dataDirFlag    string

	log *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "growthkit",
	Short: "Marketing and growth automation toolkit",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log = logger.Setup(logLevel)
		return config.LoadDotenv(dotenvMode, dotenvOverride)
	},
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&dotenvMode, "dotenv", "auto", "Load env vars from a .env file: 'auto', 'off', or a path")
	rootCmd.PersistentFlags().BoolVar(&dotenvOverride, "dotenv-override", false, "Values from .env override already-set env vars")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "Base directory for artifacts and state (default ./data or GROWTHKIT_DATA_DIR)")
}

// DataDir resolves the base output directory, creating it when needed.
func DataDir() (string, error) {
	return config.DataDir(dataDirFlag)
}

// OpenStore opens the sqlite state database under the data directory.
func OpenStore() (*store.DB, error) {
	dir, err := DataDir()
	if err != nil {
		return nil, err
	}
	return store.Open(filepath.Join(dir, "growthkit.db"))
}

package commands

import (
	"fmt"
	"os"

	"shop-catalog/internal/config"
	"shop-catalog/internal/database"
	"shop-catalog/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	indexPath string
	verbose   bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "shopctl",
	Short: "Operator tool for the shop catalog",
	Long: `shopctl manages the shop catalog outside the API server.

Connection settings are read from the environment and .env, the same way
the API server reads them (DB_HOST, DB_PORT, SEARCH_INDEX_PATH, ...).`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&indexPath, "index", "", "Search index file (defaults to SEARCH_INDEX_PATH)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
}

// environment holds what every command needs
type environment struct {
	cfg *config.Config
	log *zap.Logger
	db  database.Service
}

func loadEnvironment() (*environment, error) {
	cfg := config.Load()
	if indexPath != "" {
		cfg.Search.IndexPath = indexPath
	}

	env := "production"
	if verbose {
		env = "development"
	}
	log, err := logger.New(env)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, err
	}

	return &environment{cfg: cfg, log: log, db: db}, nil
}

func (e *environment) Close() {
	e.db.Close()
	e.log.Sync()
}

package commands

import (
	"fmt"
	"time"

	"shop-catalog/internal/repository"
	"shop-catalog/internal/search"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var reindexBatch int

// reindexCmd rebuilds the search index from the catalog store
var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the shop search index",
	Long: `Replace the content of the shop search index with every shop in the
catalog store. Run it while the API is stopped, or let the API do it at
startup with SEARCH_REINDEX_ON_START=true.

Examples:
  shopctl reindex
  shopctl reindex --index /var/lib/catalog/shops-index.db --batch 1000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment()
		if err != nil {
			return err
		}
		defer env.Close()

		index, err := search.OpenFTSIndex(env.cfg.Search.IndexPath)
		if err != nil {
			return err
		}
		defer index.Close()

		shops := repository.NewShopRepository(sqlx.NewDb(env.db.DB(), "pgx"))

		start := time.Now()
		n, err := search.Rebuild(cmd.Context(), shops, index, reindexBatch)
		if err != nil {
			return err
		}

		env.log.Info("Search index rebuilt",
			zap.Int("documents", n),
			zap.String("path", env.cfg.Search.IndexPath),
			zap.Duration("duration", time.Since(start)),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "indexed %d shops into %s\n", n, env.cfg.Search.IndexPath)
		return nil
	},
}

func init() {
	reindexCmd.Flags().IntVar(&reindexBatch, "batch", 500, "Shops read per page")
	rootCmd.AddCommand(reindexCmd)
}

// Package seed loads a zone catalog and writes its stockpile into the game
// database.
package seed

import (
	"context"
	"flag"
	"fmt"
	"log"

	entrypoint "github.com/valithor/inabsentia/internal/platform/cmd"
	"github.com/valithor/inabsentia/internal/services/game/catalog"
	storagesqlite "github.com/valithor/inabsentia/internal/services/game/storage/sqlite"
)

// Config holds seed command configuration.
type Config struct {
	DBPath      string `env:"IN_ABSENTIA_GAME_DB_PATH" envDefault:"game.db"`
	CatalogPath string `env:"IN_ABSENTIA_SEED_CATALOG" envDefault:"catalog.yaml"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the game database")
	fs.StringVar(&cfg.CatalogPath, "catalog", cfg.CatalogPath, "Path to the zone catalog file")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run seeds the stockpile from the catalog file.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceSeed, func(ctx context.Context) error {
		return Seed(ctx, cfg)
	})
}

// Seed applies the catalog stock quantities to the database, overwriting any
// existing quantities for the listed item types.
func Seed(ctx context.Context, cfg Config) error {
	c, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	store, err := storagesqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open game storage: %w", err)
	}
	defer store.Close()

	stock := c.Stock()
	for itemType, quantity := range stock {
		if err := store.SetStock(ctx, itemType, quantity); err != nil {
			return fmt.Errorf("seed %s: %w", itemType, err)
		}
	}
	log.Printf("seeded %d item types for zone %s", len(stock), c.Zone)
	return nil
}

// Package game parses game command flags and starts the world runtime.
package game

import (
	"context"
	"flag"

	entrypoint "github.com/valithor/inabsentia/internal/platform/cmd"
	"github.com/valithor/inabsentia/internal/services/game/app"
)

// Config holds game command configuration.
type Config struct {
	app.Config
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the game database")
	fs.StringVar(&cfg.ArchiveDir, "archive-dir", cfg.ArchiveDir, "Directory for resolved-contract archives")
	fs.DurationVar(&cfg.FastTick, "fast-tick", cfg.FastTick, "Interval of the stall sweep")
	fs.DurationVar(&cfg.SlowTick, "slow-tick", cfg.SlowTick, "Interval of the archive sweep")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the game world runtime.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceGame, func(ctx context.Context) error {
		runtime, err := app.NewRuntime(cfg.Config)
		if err != nil {
			return err
		}
		defer runtime.Close()
		return runtime.Run(ctx)
	})
}

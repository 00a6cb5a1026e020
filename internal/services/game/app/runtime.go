// Package app assembles the game runtime: durable storage, the in-memory
// economy ledger, the contract service, and the background tick loops that
// keep the world moving while players are away.
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/valithor/inabsentia/internal/services/game/archive"
	"github.com/valithor/inabsentia/internal/services/game/economy"
	"github.com/valithor/inabsentia/internal/services/game/service"
	"github.com/valithor/inabsentia/internal/services/game/storage"
	storagesqlite "github.com/valithor/inabsentia/internal/services/game/storage/sqlite"
	"golang.org/x/sync/errgroup"
)

// Config holds the runtime knobs sourced from the environment.
type Config struct {
	DBPath        string        `env:"IN_ABSENTIA_GAME_DB_PATH" envDefault:"game.db"`
	ArchiveDir    string        `env:"IN_ABSENTIA_GAME_ARCHIVE_DIR" envDefault:"archives"`
	FastTick      time.Duration `env:"IN_ABSENTIA_GAME_FAST_TICK" envDefault:"1s"`
	SlowTick      time.Duration `env:"IN_ABSENTIA_GAME_SLOW_TICK" envDefault:"60s"`
	StallAfter    time.Duration `env:"IN_ABSENTIA_GAME_STALL_AFTER" envDefault:"72h"`
	ArchiveAfter  time.Duration `env:"IN_ABSENTIA_GAME_ARCHIVE_AFTER" envDefault:"168h"`
	DisableTicker bool          `env:"IN_ABSENTIA_GAME_DISABLE_TICKER"`
}

// Runtime is a fully wired game backend.
type Runtime struct {
	Service  *service.ContractService
	Store    storage.Store
	Archiver *archive.Archiver
	cfg      Config
}

// NewRuntime opens storage, loads the stockpile into the ledger, and wires
// the contract service. Callers own Close.
func NewRuntime(cfg Config) (*Runtime, error) {
	store, err := storagesqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open game storage: %w", err)
	}

	stock, err := store.LoadStock(context.Background())
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("load stockpile: %w", err)
	}

	ledger := economy.NewLedger(stock)
	svc := service.NewContractService(store, store, ledger)
	archiver := archive.NewArchiver(store, cfg.ArchiveDir, cfg.ArchiveAfter)

	return &Runtime{
		Service:  svc,
		Store:    store,
		Archiver: archiver,
		cfg:      cfg,
	}, nil
}

// Close releases the runtime's storage handle.
func (r *Runtime) Close() error {
	return r.Store.Close()
}

// Run drives the world tick loops until the context is canceled. The fast
// tick pauses stalled contracts; the slow tick sweeps resolved contracts into
// the archive.
func (r *Runtime) Run(ctx context.Context) error {
	if r.cfg.DisableTicker {
		<-ctx.Done()
		return nil
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error { return r.fastTickLoop(ctx) })
	group.Go(func() error { return r.slowTickLoop(ctx) })
	return group.Wait()
}

func (r *Runtime) fastTickLoop(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.FastTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			paused, err := r.Service.PauseStale(ctx, now.Add(-r.cfg.StallAfter))
			if err != nil {
				log.Printf("stall sweep: %v", err)
				continue
			}
			if len(paused) > 0 {
				log.Printf("stall sweep paused %d contracts", len(paused))
			}
		}
	}
}

func (r *Runtime) slowTickLoop(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.SlowTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			exported, err := r.Archiver.Sweep(ctx)
			if err != nil {
				log.Printf("archive sweep: %v", err)
				continue
			}
			if exported > 0 {
				log.Printf("archive sweep exported %d contracts", exported)
			}
		}
	}
}

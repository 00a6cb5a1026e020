package seed

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"

	storagesqlite "github.com/valithor/inabsentia/internal/services/game/storage/sqlite"
)

func TestParseConfig(t *testing.T) {
	t.Setenv("IN_ABSENTIA_SEED_CATALOG", "zones/ashmarsh.yaml")

	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-db", "world.db"})
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.DBPath != "world.db" {
		t.Fatalf("DBPath = %q, want world.db", cfg.DBPath)
	}
	if cfg.CatalogPath != "zones/ashmarsh.yaml" {
		t.Fatalf("CatalogPath = %q, want zones/ashmarsh.yaml", cfg.CatalogPath)
	}
}

func TestSeedWritesStock(t *testing.T) {
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "catalog.yaml")
	content := `
zone: ashmarsh
items:
  - type: iron_ingot
    initial_stock: 40
  - type: oak_plank
    initial_stock: 25
`
	if err := os.WriteFile(catalogPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	cfg := Config{
		DBPath:      filepath.Join(dir, "game.db"),
		CatalogPath: catalogPath,
	}
	if err := Seed(context.Background(), cfg); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	store, err := storagesqlite.Open(cfg.DBPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer store.Close()

	stock, err := store.LoadStock(context.Background())
	if err != nil {
		t.Fatalf("LoadStock() error = %v", err)
	}
	if stock["iron_ingot"] != 40 || stock["oak_plank"] != 25 {
		t.Fatalf("stock = %v", stock)
	}
}

func TestSeedMissingCatalog(t *testing.T) {
	cfg := Config{
		DBPath:      filepath.Join(t.TempDir(), "game.db"),
		CatalogPath: filepath.Join(t.TempDir(), "missing.yaml"),
	}
	if err := Seed(context.Background(), cfg); err == nil {
		t.Fatal("Seed() expected error for missing catalog")
	}
}

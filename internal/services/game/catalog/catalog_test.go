package catalog

import (
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/valithor/inabsentia/internal/platform/errors"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeCatalog(t, `
zone: ashmarsh
items:
  - type: iron_ingot
    display_name: Iron Ingot
    initial_stock: 40
  - type: oak_plank
    display_name: Oak Plank
    initial_stock: 25
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Zone != "ashmarsh" {
		t.Fatalf("Zone = %q, want ashmarsh", c.Zone)
	}
	if len(c.Items) != 2 {
		t.Fatalf("Items = %d, want 2", len(c.Items))
	}

	stock := c.Stock()
	if stock["iron_ingot"] != 40 || stock["oak_plank"] != 25 {
		t.Fatalf("Stock() = %v", stock)
	}
}

func TestLoadRejectsNegativeStock(t *testing.T) {
	path := writeCatalog(t, `
zone: ashmarsh
items:
  - type: iron_ingot
    initial_stock: -1
`)

	_, err := Load(path)
	if !apperrors.IsCode(err, apperrors.CodeCatalogInvalidStock) {
		t.Fatalf("Load() error = %v, want CATALOG_INVALID_STOCK", err)
	}
}

func TestLoadRejectsDuplicateItems(t *testing.T) {
	path := writeCatalog(t, `
zone: ashmarsh
items:
  - type: iron_ingot
    initial_stock: 5
  - type: iron_ingot
    initial_stock: 9
`)

	_, err := Load(path)
	if !apperrors.IsCode(err, apperrors.CodeCatalogInvalidStock) {
		t.Fatalf("Load() error = %v, want CATALOG_INVALID_STOCK", err)
	}
}

func TestLoadRejectsBlankType(t *testing.T) {
	path := writeCatalog(t, `
items:
  - type: "  "
    initial_stock: 5
`)

	_, err := Load(path)
	if !apperrors.IsCode(err, apperrors.CodeCatalogInvalidStock) {
		t.Fatalf("Load() error = %v, want CATALOG_INVALID_STOCK", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Load() missing file expected error")
	}
}

// Package catalog loads the world's item catalog and initial stockpile
// quantities from a YAML file. The catalog drives seeding, it is not
// consulted at contract time.
package catalog

import (
	"fmt"
	"os"
	"strings"

	apperrors "github.com/valithor/inabsentia/internal/platform/errors"
	"gopkg.in/yaml.v3"
)

// Item describes one reservable material.
type Item struct {
	Type         string `yaml:"type"`
	DisplayName  string `yaml:"display_name"`
	InitialStock int    `yaml:"initial_stock"`
}

// Catalog is the full seed definition for a zone's stockpile.
type Catalog struct {
	Zone  string `yaml:"zone"`
	Items []Item `yaml:"items"`
}

// Load reads and validates a catalog file.
func Load(path string) (Catalog, error) {
	var c Catalog
	raw, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("catalog yaml: %w", err)
	}
	if err := c.validate(); err != nil {
		return Catalog{}, err
	}
	return c, nil
}

func (c Catalog) validate() error {
	seen := make(map[string]bool, len(c.Items))
	for _, item := range c.Items {
		itemType := strings.TrimSpace(item.Type)
		if itemType == "" {
			return apperrors.New(apperrors.CodeCatalogInvalidStock, "catalog item type is required")
		}
		if seen[itemType] {
			return apperrors.WithMetadata(apperrors.CodeCatalogInvalidStock,
				fmt.Sprintf("duplicate catalog item %s", itemType),
				map[string]string{"ItemType": itemType})
		}
		seen[itemType] = true
		if item.InitialStock < 0 {
			return apperrors.WithMetadata(apperrors.CodeCatalogInvalidStock,
				fmt.Sprintf("negative initial stock for %s", itemType),
				map[string]string{"ItemType": itemType, "Quantity": fmt.Sprintf("%d", item.InitialStock)})
		}
	}
	return nil
}

// Stock flattens the catalog into the item type to quantity map the ledger
// and seed command consume.
func (c Catalog) Stock() map[string]int {
	stock := make(map[string]int, len(c.Items))
	for _, item := range c.Items {
		stock[strings.TrimSpace(item.Type)] = item.InitialStock
	}
	return stock
}

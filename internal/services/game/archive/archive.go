// Package archive exports resolved contracts to compressed JSONL files so
// long-dead contracts can leave the hot database without losing history.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/valithor/inabsentia/internal/services/game/domain/contract"
	"github.com/valithor/inabsentia/internal/services/game/storage"
)

// Record is one archived contract line. Timestamps are RFC 3339 so archives
// stay readable without the database schema.
type Record struct {
	ID               string            `json:"id"`
	Type             string            `json:"type"`
	Status           string            `json:"status"`
	Contributors     []RecordEntry     `json:"contributors,omitempty"`
	Materials        map[string]int    `json:"materials,omitempty"`
	Trials           int               `json:"trials,omitempty"`
	LastContribution string            `json:"last_contribution,omitempty"`
	CreatedAt        string            `json:"created_at"`
	ResolvedAt       string            `json:"resolved_at"`
	Extra            map[string]string `json:"extra,omitempty"`
}

// RecordEntry is one contributor's final totals.
type RecordEntry struct {
	CharacterID string  `json:"character_id"`
	Effort      float64 `json:"effort"`
	Expertise   float64 `json:"expertise"`
	WorkUnits   float64 `json:"work_units"`
	Approved    bool    `json:"approved"`
}

// Archiver sweeps resolved contracts older than the retention window into
// zstd-compressed JSONL files under dir.
type Archiver struct {
	store     storage.ContractStore
	dir       string
	retention time.Duration
	now       func() time.Time
}

// NewArchiver creates an archiver writing under dir. Contracts stay in the
// database until they have been resolved for at least retention.
func NewArchiver(store storage.ContractStore, dir string, retention time.Duration) *Archiver {
	return &Archiver{
		store:     store,
		dir:       dir,
		retention: retention,
		now:       time.Now,
	}
}

// Sweep exports every resolved contract past retention and marks it archived.
// Returns the number of contracts exported. A sweep with nothing to export
// writes no file.
func (a *Archiver) Sweep(ctx context.Context) (int, error) {
	now := a.now().UTC()
	cutoff := now.Add(-a.retention)

	contracts, err := a.store.ListResolvedUnarchived(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list archivable contracts: %w", err)
	}
	if len(contracts) == 0 {
		return 0, nil
	}

	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return 0, fmt.Errorf("create archive dir: %w", err)
	}
	path := filepath.Join(a.dir, fmt.Sprintf("contracts_%s.jsonl.zst", now.Format("20060102T150405Z")))
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create archive file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer, err := zstd.NewWriter(file)
	if err != nil {
		return 0, fmt.Errorf("open zstd writer: %w", err)
	}

	encoder := json.NewEncoder(writer)
	exported := 0
	for _, c := range contracts {
		if err := encoder.Encode(toRecord(c)); err != nil {
			_ = writer.Close()
			return exported, fmt.Errorf("encode contract %s: %w", c.ID, err)
		}
		if err := a.store.MarkContractArchived(ctx, c.ID, now); err != nil {
			_ = writer.Close()
			return exported, fmt.Errorf("mark contract %s archived: %w", c.ID, err)
		}
		exported++
	}

	if err := writer.Close(); err != nil {
		return exported, fmt.Errorf("flush archive: %w", err)
	}
	if err := file.Close(); err != nil {
		return exported, fmt.Errorf("close archive: %w", err)
	}
	return exported, nil
}

// Read decodes one archive file back into records in write order.
func Read(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader, err := zstd.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("open zstd reader: %w", err)
	}
	defer reader.Close()

	var records []Record
	decoder := json.NewDecoder(reader)
	for decoder.More() {
		var record Record
		if err := decoder.Decode(&record); err != nil {
			return nil, fmt.Errorf("decode archive record: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}

func toRecord(c contract.Contract) Record {
	record := Record{
		ID:         c.ID,
		Type:       string(c.Type),
		Status:     string(c.Status),
		Materials:  c.ReservedMaterials,
		Trials:     len(c.Trials),
		CreatedAt:  c.CreatedAt.Format(time.RFC3339),
		ResolvedAt: c.UpdatedAt.Format(time.RFC3339),
	}
	if !c.LastContribution.IsZero() {
		record.LastContribution = c.LastContribution.Format(time.RFC3339)
	}
	for _, entry := range c.Contributors {
		record.Contributors = append(record.Contributors, RecordEntry{
			CharacterID: entry.CharacterID,
			Effort:      entry.Effort,
			Expertise:   entry.Expertise,
			WorkUnits:   entry.WorkUnits,
			Approved:    entry.Approved,
		})
	}
	return record
}

package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/valithor/inabsentia/internal/services/game/domain/contract"
	"github.com/valithor/inabsentia/internal/services/game/storage"
)

type fakeContractStore struct {
	contracts map[string]contract.Contract
	archived  map[string]time.Time
}

func newFakeContractStore() *fakeContractStore {
	return &fakeContractStore{
		contracts: map[string]contract.Contract{},
		archived:  map[string]time.Time{},
	}
}

func (f *fakeContractStore) PutContract(_ context.Context, c contract.Contract) error {
	f.contracts[c.ID] = c
	return nil
}

func (f *fakeContractStore) GetContract(_ context.Context, id string) (contract.Contract, error) {
	c, ok := f.contracts[id]
	if !ok {
		return contract.Contract{}, storage.ErrNotFound
	}
	return c, nil
}

func (f *fakeContractStore) ListContractsByStatus(_ context.Context, status contract.Status) ([]contract.Contract, error) {
	var out []contract.Contract
	for _, c := range f.contracts {
		if c.Status == status {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeContractStore) ListResolvedUnarchived(_ context.Context, cutoff time.Time) ([]contract.Contract, error) {
	var out []contract.Contract
	for _, c := range f.contracts {
		if _, done := f.archived[c.ID]; done {
			continue
		}
		if c.Status == contract.StatusResolved && c.UpdatedAt.Before(cutoff) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeContractStore) MarkContractArchived(_ context.Context, id string, at time.Time) error {
	if _, ok := f.contracts[id]; !ok {
		return storage.ErrNotFound
	}
	f.archived[id] = at
	return nil
}

func resolvedContract(id string, resolvedAt time.Time) contract.Contract {
	return contract.Contract{
		ID:     id,
		Type:   contract.TypeResearch,
		Status: contract.StatusResolved,
		Contributors: []contract.Contributor{
			{CharacterID: "char-1", Effort: 12.0, Expertise: 1.4, WorkUnits: 3.0, Approved: true},
		},
		ReservedMaterials: map[string]int{"iron_ingot": 2},
		Trials: []contract.Trial{
			{CharacterID: "char-1", Params: map[string]string{"angle": "steep"}, SubmittedAt: resolvedAt},
		},
		CreatedAt: resolvedAt.Add(-time.Hour),
		UpdatedAt: resolvedAt,
	}
}

func TestSweepExportsAndMarks(t *testing.T) {
	store := newFakeContractStore()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	old := resolvedContract("contract-old", now.Add(-48*time.Hour))
	recent := resolvedContract("contract-recent", now.Add(-time.Hour))
	if err := store.PutContract(context.Background(), old); err != nil {
		t.Fatalf("PutContract() error = %v", err)
	}
	if err := store.PutContract(context.Background(), recent); err != nil {
		t.Fatalf("PutContract() error = %v", err)
	}

	dir := t.TempDir()
	archiver := NewArchiver(store, dir, 24*time.Hour)
	archiver.now = func() time.Time { return now }

	exported, err := archiver.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if exported != 1 {
		t.Fatalf("exported = %d, want 1", exported)
	}
	if _, ok := store.archived["contract-old"]; !ok {
		t.Fatal("old contract should be marked archived")
	}
	if _, ok := store.archived["contract-recent"]; ok {
		t.Fatal("recent contract should not be archived")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read archive dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("archive files = %d, want 1", len(entries))
	}

	records, err := Read(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	record := records[0]
	if record.ID != "contract-old" || record.Status != "RESOLVED" {
		t.Fatalf("record = %+v", record)
	}
	if len(record.Contributors) != 1 || record.Contributors[0].Effort != 12.0 {
		t.Fatalf("contributors = %+v", record.Contributors)
	}
	if record.Materials["iron_ingot"] != 2 {
		t.Fatalf("materials = %v", record.Materials)
	}
	if record.Trials != 1 {
		t.Fatalf("trials = %d, want 1", record.Trials)
	}
}

func TestSweepNothingToExport(t *testing.T) {
	store := newFakeContractStore()
	dir := t.TempDir()
	archiver := NewArchiver(store, dir, 24*time.Hour)

	exported, err := archiver.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if exported != 0 {
		t.Fatalf("exported = %d, want 0", exported)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read archive dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("empty sweep created %d files", len(entries))
	}
}

func TestSweepIsIdempotent(t *testing.T) {
	store := newFakeContractStore()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	if err := store.PutContract(context.Background(), resolvedContract("contract-old", now.Add(-48*time.Hour))); err != nil {
		t.Fatalf("PutContract() error = %v", err)
	}

	archiver := NewArchiver(store, t.TempDir(), 24*time.Hour)
	archiver.now = func() time.Time { return now }

	if exported, err := archiver.Sweep(context.Background()); err != nil || exported != 1 {
		t.Fatalf("first Sweep() = %d, %v", exported, err)
	}
	if exported, err := archiver.Sweep(context.Background()); err != nil || exported != 0 {
		t.Fatalf("second Sweep() = %d, %v", exported, err)
	}
}

package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/valithor/inabsentia/internal/services/game/domain/contract"
	"github.com/valithor/inabsentia/internal/services/game/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "game.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	})
	return store
}

func sampleContract(id string, at time.Time) contract.Contract {
	return contract.Contract{
		ID:     id,
		Type:   contract.TypeCrafting,
		Status: contract.StatusPending,
		Contributors: []contract.Contributor{
			{CharacterID: "char-1", Effort: 6.0, Expertise: 1.2, WorkUnits: 1.0, Approved: true},
			{CharacterID: "char-2", Approved: false},
		},
		ReservedMaterials: map[string]int{"iron_ingot": 3, "oak_plank": 2},
		CreatedAt:         at,
		UpdatedAt:         at,
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("Open() with blank path expected error")
	}
}

func TestPutGetContractRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	want := sampleContract("contract-1", at)
	want.Status = contract.StatusActive
	want.LastContribution = at.Add(5 * time.Minute)
	want.Trials = []contract.Trial{
		{
			CharacterID: "char-1",
			Params:      map[string]string{"temperature": "hot", "vessel": "crucible"},
			Observation: "the alloy held",
			SubmittedAt: at.Add(10 * time.Minute),
		},
	}

	if err := store.PutContract(ctx, want); err != nil {
		t.Fatalf("PutContract() error = %v", err)
	}

	got, err := store.GetContract(ctx, "contract-1")
	if err != nil {
		t.Fatalf("GetContract() error = %v", err)
	}
	if got.Type != want.Type || got.Status != want.Status {
		t.Fatalf("GetContract() = %s/%s, want %s/%s", got.Type, got.Status, want.Type, want.Status)
	}
	if !got.LastContribution.Equal(want.LastContribution) {
		t.Fatalf("LastContribution = %v, want %v", got.LastContribution, want.LastContribution)
	}
	if len(got.Contributors) != 2 {
		t.Fatalf("Contributors = %d, want 2", len(got.Contributors))
	}
	if got.Contributors[0].CharacterID != "char-1" || !got.Contributors[0].Approved {
		t.Fatalf("first contributor = %+v, want approved char-1", got.Contributors[0])
	}
	if got.Contributors[0].Effort != 6.0 || got.Contributors[0].Expertise != 1.2 {
		t.Fatalf("contributor totals = %+v", got.Contributors[0])
	}
	if got.ReservedMaterials["iron_ingot"] != 3 || got.ReservedMaterials["oak_plank"] != 2 {
		t.Fatalf("ReservedMaterials = %v", got.ReservedMaterials)
	}
	if len(got.Trials) != 1 {
		t.Fatalf("Trials = %d, want 1", len(got.Trials))
	}
	if got.Trials[0].Params["vessel"] != "crucible" {
		t.Fatalf("trial params = %v", got.Trials[0].Params)
	}
	if !got.Trials[0].SubmittedAt.Equal(want.Trials[0].SubmittedAt) {
		t.Fatalf("trial SubmittedAt = %v", got.Trials[0].SubmittedAt)
	}
}

func TestPutContractReplacesChildren(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	c := sampleContract("contract-1", at)
	if err := store.PutContract(ctx, c); err != nil {
		t.Fatalf("PutContract() error = %v", err)
	}

	c.Contributors = c.Contributors[:1]
	c.ReservedMaterials = map[string]int{"iron_ingot": 1}
	c.Status = contract.StatusPaused
	c.PauseReason = "STAMINA_DEPLETED"
	c.UpdatedAt = at.Add(time.Hour)
	if err := store.PutContract(ctx, c); err != nil {
		t.Fatalf("PutContract() rewrite error = %v", err)
	}

	got, err := store.GetContract(ctx, "contract-1")
	if err != nil {
		t.Fatalf("GetContract() error = %v", err)
	}
	if len(got.Contributors) != 1 {
		t.Fatalf("Contributors = %d, want 1", len(got.Contributors))
	}
	if len(got.ReservedMaterials) != 1 || got.ReservedMaterials["iron_ingot"] != 1 {
		t.Fatalf("ReservedMaterials = %v", got.ReservedMaterials)
	}
	if got.Status != contract.StatusPaused || got.PauseReason != "STAMINA_DEPLETED" {
		t.Fatalf("status = %s/%q", got.Status, got.PauseReason)
	}
}

func TestGetContractNotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.GetContract(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("GetContract() error = %v, want ErrNotFound", err)
	}
}

func TestListContractsByStatus(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first := sampleContract("contract-1", at)
	first.Status = contract.StatusActive
	second := sampleContract("contract-2", at.Add(time.Minute))
	second.Status = contract.StatusActive
	third := sampleContract("contract-3", at.Add(2*time.Minute))

	for _, c := range []contract.Contract{first, second, third} {
		if err := store.PutContract(ctx, c); err != nil {
			t.Fatalf("PutContract(%s) error = %v", c.ID, err)
		}
	}

	active, err := store.ListContractsByStatus(ctx, contract.StatusActive)
	if err != nil {
		t.Fatalf("ListContractsByStatus() error = %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("active contracts = %d, want 2", len(active))
	}
	if active[0].ID != "contract-1" || active[1].ID != "contract-2" {
		t.Fatalf("active order = %s, %s", active[0].ID, active[1].ID)
	}
}

func TestListResolvedUnarchived(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	stale := sampleContract("contract-stale", at)
	stale.Status = contract.StatusResolved
	stale.UpdatedAt = at

	fresh := sampleContract("contract-fresh", at)
	fresh.Status = contract.StatusResolved
	fresh.UpdatedAt = at.Add(2 * time.Hour)

	exported := sampleContract("contract-exported", at)
	exported.Status = contract.StatusResolved
	exported.UpdatedAt = at

	for _, c := range []contract.Contract{stale, fresh, exported} {
		if err := store.PutContract(ctx, c); err != nil {
			t.Fatalf("PutContract(%s) error = %v", c.ID, err)
		}
	}
	if err := store.MarkContractArchived(ctx, "contract-exported", at.Add(time.Hour)); err != nil {
		t.Fatalf("MarkContractArchived() error = %v", err)
	}

	got, err := store.ListResolvedUnarchived(ctx, at.Add(time.Hour))
	if err != nil {
		t.Fatalf("ListResolvedUnarchived() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "contract-stale" {
		t.Fatalf("ListResolvedUnarchived() = %+v, want only contract-stale", got)
	}
}

func TestMarkContractArchivedSurvivesRewrite(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	c := sampleContract("contract-1", at)
	c.Status = contract.StatusResolved
	if err := store.PutContract(ctx, c); err != nil {
		t.Fatalf("PutContract() error = %v", err)
	}
	if err := store.MarkContractArchived(ctx, "contract-1", at.Add(time.Hour)); err != nil {
		t.Fatalf("MarkContractArchived() error = %v", err)
	}

	c.UpdatedAt = at.Add(time.Minute)
	if err := store.PutContract(ctx, c); err != nil {
		t.Fatalf("PutContract() rewrite error = %v", err)
	}

	got, err := store.ListResolvedUnarchived(ctx, at.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("ListResolvedUnarchived() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("archived contract resurfaced: %+v", got)
	}
}

func TestMarkContractArchivedNotFound(t *testing.T) {
	store := openTestStore(t)

	err := store.MarkContractArchived(context.Background(), "missing", time.Now())
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("MarkContractArchived() error = %v, want ErrNotFound", err)
	}
}

func TestStockLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.SetStock(ctx, "iron_ingot", 10); err != nil {
		t.Fatalf("SetStock() error = %v", err)
	}
	if err := store.ApplyStockDelta(ctx, "iron_ingot", -3); err != nil {
		t.Fatalf("ApplyStockDelta() error = %v", err)
	}
	if err := store.ApplyStockDelta(ctx, "oak_plank", 5); err != nil {
		t.Fatalf("ApplyStockDelta() new item error = %v", err)
	}

	stock, err := store.LoadStock(ctx)
	if err != nil {
		t.Fatalf("LoadStock() error = %v", err)
	}
	if stock["iron_ingot"] != 7 {
		t.Fatalf("iron_ingot = %d, want 7", stock["iron_ingot"])
	}
	if stock["oak_plank"] != 5 {
		t.Fatalf("oak_plank = %d, want 5", stock["oak_plank"])
	}

	if err := store.SetStock(ctx, "iron_ingot", -1); err == nil {
		t.Fatal("SetStock() with negative quantity expected error")
	}
}

func TestStockDeltaCannotGoNegative(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.SetStock(ctx, "iron_ingot", 2); err != nil {
		t.Fatalf("SetStock() error = %v", err)
	}
	if err := store.ApplyStockDelta(ctx, "iron_ingot", -5); err == nil {
		t.Fatal("ApplyStockDelta() below zero expected error")
	}
}

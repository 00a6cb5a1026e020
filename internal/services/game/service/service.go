// Package service coordinates contract lifecycle operations across the
// domain rules, the in-memory economy ledger, and durable storage.
//
// The service is the concurrency boundary: operations on the same contract
// are serialized by a per-contract lock, and material reservations reserve
// against the ledger before the contract is persisted, with compensating
// releases when persistence fails.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/valithor/inabsentia/internal/platform/errors"
	"github.com/valithor/inabsentia/internal/platform/id"
	"github.com/valithor/inabsentia/internal/services/game/domain/contract"
	"github.com/valithor/inabsentia/internal/services/game/domain/effort"
	"github.com/valithor/inabsentia/internal/services/game/economy"
	"github.com/valithor/inabsentia/internal/services/game/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// StalledPauseReason marks contracts paused by the idle sweep.
const StalledPauseReason = "STALLED"

var (
	// ErrEmptyContractID indicates a missing contract identifier.
	ErrEmptyContractID = apperrors.New(apperrors.CodeContractEmptyID, "contract id is required")
	// ErrContractNotActive indicates an operation that requires an active contract.
	ErrContractNotActive = apperrors.New(apperrors.CodeContractNotActive, "contract is not active")
	// ErrContractResolved indicates a mutation attempted on a resolved contract.
	ErrContractResolved = apperrors.New(apperrors.CodeContractResolved, "contract is already resolved")
	// ErrNotApproved indicates a contributor who has not been approved yet.
	ErrNotApproved = apperrors.New(apperrors.CodeContractNotApproved, "character is not an approved contributor")
	// ErrEmptyTrialParams indicates a trial submitted without parameters.
	ErrEmptyTrialParams = apperrors.New(apperrors.CodeContractEmptyTrialParams, "trial parameters are required")
	// ErrEmptyPauseReason indicates a pause requested without a reason.
	ErrEmptyPauseReason = apperrors.New(apperrors.CodeContractEmptyPauseReason, "pause reason is required")
)

// ContractService exposes the contract lifecycle and resource reservation
// operations.
type ContractService struct {
	store  storage.ContractStore
	stock  storage.LedgerStore
	ledger *economy.Ledger
	tracer trace.Tracer

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	now   func() time.Time
	newID func() (string, error)
}

// Option customizes a ContractService, used by tests to pin time and IDs.
type Option func(*ContractService)

// WithClock overrides the service clock.
func WithClock(now func() time.Time) Option {
	return func(s *ContractService) { s.now = now }
}

// WithIDGenerator overrides contract ID generation.
func WithIDGenerator(newID func() (string, error)) Option {
	return func(s *ContractService) { s.newID = newID }
}

// NewContractService wires the service with its collaborators. The ledger is
// the authoritative in-memory stock; the stock store mirrors it durably.
func NewContractService(store storage.ContractStore, stock storage.LedgerStore, ledger *economy.Ledger, opts ...Option) *ContractService {
	s := &ContractService{
		store:  store,
		stock:  stock,
		ledger: ledger,
		tracer: otel.Tracer("inabsentia.game.contracts"),
		locks:  map[string]*sync.Mutex{},
		now:    time.Now,
		newID:  id.NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ContributionInput describes one effort submission against a contract.
type ContributionInput struct {
	ContractID     string
	CharacterID    string
	RelevantStat   float64
	ReferenceValue float64
	StaminaDrained float64
	Expertise      float64
	ActiveSeconds  int64
}

// ContributionResult reports the computed accrual for one submission along
// with the updated contract.
type ContributionResult struct {
	Efficiency  float64
	Effort      float64
	WorkUnits   float64
	TotalEffort float64
	Contract    contract.Contract
}

// Settlement reports the outcome of resolving a contract.
type Settlement struct {
	Quality           float64
	ReleasedMaterials map[string]int
	Contract          contract.Contract
}

func (s *ContractService) lockContract(contractID string) func() {
	s.locksMu.Lock()
	mu, ok := s.locks[contractID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[contractID] = mu
	}
	s.locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

// Create registers a new pending contract and reserves its required
// materials. Reservation is all-or-nothing: item types are claimed in sorted
// order and every claimed item is released when a later claim or persistence
// fails.
func (s *ContractService) Create(ctx context.Context, input contract.CreateInput) (contract.Contract, error) {
	ctx, span := s.tracer.Start(ctx, "ContractService.Create")
	defer span.End()

	c, err := contract.New(input, s.now, s.newID)
	if err != nil {
		return contract.Contract{}, err
	}
	span.SetAttributes(
		attribute.String("contract.id", c.ID),
		attribute.String("contract.type", string(c.Type)),
	)

	reserved := make([]string, 0, len(c.ReservedMaterials))
	rollback := func() {
		for _, itemType := range reserved {
			_ = s.ledger.Release(itemType, c.ReservedMaterials[itemType])
			_ = s.stock.ApplyStockDelta(ctx, itemType, c.ReservedMaterials[itemType])
		}
	}
	for _, itemType := range c.MaterialTypes() {
		qty := c.ReservedMaterials[itemType]
		if !s.ledger.Reserve(itemType, qty) {
			rollback()
			return contract.Contract{}, apperrors.WithMetadata(
				apperrors.CodeContractInsufficientStock,
				fmt.Sprintf("insufficient stock of %s", itemType),
				map[string]string{
					"ItemType": itemType,
					"Have":     fmt.Sprintf("%d", s.ledger.Available(itemType)),
					"Need":     fmt.Sprintf("%d", qty),
				},
			)
		}
		reserved = append(reserved, itemType)
		if err := s.stock.ApplyStockDelta(ctx, itemType, -qty); err != nil {
			_ = s.ledger.Release(itemType, qty)
			reserved = reserved[:len(reserved)-1]
			rollback()
			return contract.Contract{}, fmt.Errorf("persist stock reservation: %w", err)
		}
	}

	if err := s.store.PutContract(ctx, c); err != nil {
		rollback()
		return contract.Contract{}, fmt.Errorf("persist contract: %w", err)
	}
	return cloneContract(c), nil
}

// Get fetches a contract by ID.
func (s *ContractService) Get(ctx context.Context, contractID string) (contract.Contract, error) {
	if contractID == "" {
		return contract.Contract{}, ErrEmptyContractID
	}
	c, err := s.store.GetContract(ctx, contractID)
	if err != nil {
		return contract.Contract{}, mapStorageError(err)
	}
	return cloneContract(c), nil
}

// Activate moves a pending or paused contract to ACTIVE. Activating a
// contract that is already active is absorbed; activating a resolved one
// fails.
func (s *ContractService) Activate(ctx context.Context, contractID string) (contract.Contract, error) {
	return s.mutate(ctx, "ContractService.Activate", contractID, func(c *contract.Contract) error {
		if c.Status == contract.StatusResolved {
			return ErrContractResolved
		}
		if c.Activate() {
			c.UpdatedAt = s.now().UTC()
		}
		return nil
	})
}

// Pause moves an active contract to PAUSED with the given reason. A reason is
// required so a paused contract always explains itself. Pausing a contract
// that is not active is absorbed without touching the stored reason.
func (s *ContractService) Pause(ctx context.Context, contractID, reason string) (contract.Contract, error) {
	if reason == "" {
		return contract.Contract{}, ErrEmptyPauseReason
	}
	return s.mutate(ctx, "ContractService.Pause", contractID, func(c *contract.Contract) error {
		if c.Pause(reason) {
			c.UpdatedAt = s.now().UTC()
		}
		return nil
	})
}

// Resume moves a paused contract back to ACTIVE and clears the pause reason.
func (s *ContractService) Resume(ctx context.Context, contractID string) (contract.Contract, error) {
	return s.mutate(ctx, "ContractService.Resume", contractID, func(c *contract.Contract) error {
		if c.Status == contract.StatusResolved {
			return ErrContractResolved
		}
		if c.Activate() {
			c.UpdatedAt = s.now().UTC()
		}
		return nil
	})
}

// Invite adds a character to a contract as a pending contributor.
func (s *ContractService) Invite(ctx context.Context, contractID, characterID string) (contract.Contract, error) {
	if characterID == "" {
		return contract.Contract{}, contract.ErrEmptyCharacterID
	}
	return s.mutate(ctx, "ContractService.Invite", contractID, func(c *contract.Contract) error {
		if c.Status == contract.StatusResolved {
			return ErrContractResolved
		}
		if !c.Invite(characterID) {
			return apperrors.WithMetadata(apperrors.CodeContractAlreadyInvited,
				"character is already part of the contract",
				map[string]string{"CharacterID": characterID})
		}
		c.UpdatedAt = s.now().UTC()
		return nil
	})
}

// Approve accepts a previously invited character as a contributor.
func (s *ContractService) Approve(ctx context.Context, contractID, characterID string) (contract.Contract, error) {
	if characterID == "" {
		return contract.Contract{}, contract.ErrEmptyCharacterID
	}
	return s.mutate(ctx, "ContractService.Approve", contractID, func(c *contract.Contract) error {
		if c.Status == contract.StatusResolved {
			return ErrContractResolved
		}
		if !c.Approve(characterID) {
			return apperrors.WithMetadata(apperrors.CodeContractContributorUnknown,
				"character has no pending invitation",
				map[string]string{"CharacterID": characterID})
		}
		c.UpdatedAt = s.now().UTC()
		return nil
	})
}

// Contribute converts one activity submission into effort and work units and
// accumulates them on the contributor's entry. The contract must be active
// and the character approved.
func (s *ContractService) Contribute(ctx context.Context, input ContributionInput) (ContributionResult, error) {
	ctx, span := s.tracer.Start(ctx, "ContractService.Contribute",
		trace.WithAttributes(attribute.String("contract.id", input.ContractID)))
	defer span.End()

	if input.ContractID == "" {
		return ContributionResult{}, ErrEmptyContractID
	}
	if input.CharacterID == "" {
		return ContributionResult{}, contract.ErrEmptyCharacterID
	}

	efficiency, err := effort.Efficiency(input.RelevantStat, input.ReferenceValue)
	if err != nil {
		return ContributionResult{}, err
	}
	gained, err := effort.Generate(input.StaminaDrained, efficiency)
	if err != nil {
		return ContributionResult{}, err
	}
	workUnits, err := effort.WorkUnitsFromActiveSeconds(input.ActiveSeconds)
	if err != nil {
		return ContributionResult{}, err
	}

	var result ContributionResult
	updated, err := s.mutate(ctx, "", input.ContractID, func(c *contract.Contract) error {
		if c.Status != contract.StatusActive {
			return apperrors.WithMetadata(apperrors.CodeContractNotActive,
				"contract is not active",
				map[string]string{"Status": string(c.Status)})
		}
		if !c.Accumulate(input.CharacterID, gained, input.Expertise, workUnits, s.now()) {
			return apperrors.WithMetadata(apperrors.CodeContractNotApproved,
				"character is not an approved contributor",
				map[string]string{"CharacterID": input.CharacterID})
		}
		for _, entry := range c.Contributors {
			if entry.CharacterID == input.CharacterID {
				result = ContributionResult{
					Efficiency:  efficiency,
					Effort:      gained,
					WorkUnits:   workUnits,
					TotalEffort: entry.Effort,
				}
			}
		}
		return nil
	})
	if err != nil {
		return ContributionResult{}, err
	}
	result.Contract = updated
	return result, nil
}

// SubmitTrial records an experimental submission against an active contract.
func (s *ContractService) SubmitTrial(ctx context.Context, contractID, characterID string, params map[string]string, observation string) (contract.Contract, error) {
	if characterID == "" {
		return contract.Contract{}, contract.ErrEmptyCharacterID
	}
	if len(params) == 0 {
		return contract.Contract{}, ErrEmptyTrialParams
	}
	return s.mutate(ctx, "ContractService.SubmitTrial", contractID, func(c *contract.Contract) error {
		if c.Status != contract.StatusActive {
			return ErrContractNotActive
		}
		if !c.IsApproved(characterID) {
			return ErrNotApproved
		}
		copied := make(map[string]string, len(params))
		for k, v := range params {
			copied[k] = v
		}
		c.RecordTrial(contract.Trial{
			CharacterID: characterID,
			Params:      copied,
			Observation: observation,
			SubmittedAt: s.now().UTC(),
		})
		c.UpdatedAt = s.now().UTC()
		return nil
	})
}

// Resolve completes a contract: it releases every reserved material back to
// the ledger and settles the outcome quality as the effort-weighted blend of
// contributor expertise. Resolving an already-resolved contract fails so
// materials are never released twice.
func (s *ContractService) Resolve(ctx context.Context, contractID string) (Settlement, error) {
	return s.settle(ctx, "ContractService.Resolve", contractID)
}

// Cancel abandons a contract before completion. The reserved materials return
// to the ledger; the settlement quality reflects whatever effort was
// contributed, which is zero for a contract that never ran.
func (s *ContractService) Cancel(ctx context.Context, contractID string) (Settlement, error) {
	return s.settle(ctx, "ContractService.Cancel", contractID)
}

func (s *ContractService) settle(ctx context.Context, spanName, contractID string) (Settlement, error) {
	ctx, span := s.tracer.Start(ctx, spanName,
		trace.WithAttributes(attribute.String("contract.id", contractID)))
	defer span.End()

	if contractID == "" {
		return Settlement{}, ErrEmptyContractID
	}
	unlock := s.lockContract(contractID)
	defer unlock()

	c, err := s.store.GetContract(ctx, contractID)
	if err != nil {
		return Settlement{}, mapStorageError(err)
	}
	if !c.Resolve() {
		return Settlement{}, ErrContractResolved
	}
	c.UpdatedAt = s.now().UTC()

	if err := s.store.PutContract(ctx, c); err != nil {
		return Settlement{}, fmt.Errorf("persist contract: %w", err)
	}

	released := make(map[string]int, len(c.ReservedMaterials))
	for _, itemType := range c.MaterialTypes() {
		qty := c.ReservedMaterials[itemType]
		if err := s.ledger.Release(itemType, qty); err != nil {
			return Settlement{}, err
		}
		if err := s.stock.ApplyStockDelta(ctx, itemType, qty); err != nil {
			return Settlement{}, fmt.Errorf("persist stock release: %w", err)
		}
		released[itemType] = qty
	}

	return Settlement{
		Quality:           effort.WeightedExpertise(c.ExpertiseShares()),
		ReleasedMaterials: released,
		Contract:          cloneContract(c),
	}, nil
}

// PauseStale pauses every active contract whose last activity predates the
// cutoff, using the STALLED reason. Contracts that never received a
// contribution age from their creation time. Returns the paused contract IDs.
func (s *ContractService) PauseStale(ctx context.Context, cutoff time.Time) ([]string, error) {
	ctx, span := s.tracer.Start(ctx, "ContractService.PauseStale")
	defer span.End()

	active, err := s.store.ListContractsByStatus(ctx, contract.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("list active contracts: %w", err)
	}

	var paused []string
	for _, c := range active {
		lastActivity := c.LastContribution
		if lastActivity.IsZero() {
			lastActivity = c.CreatedAt
		}
		if !lastActivity.Before(cutoff) {
			continue
		}
		if _, err := s.Pause(ctx, c.ID, StalledPauseReason); err != nil {
			return paused, err
		}
		paused = append(paused, c.ID)
	}
	span.SetAttributes(attribute.Int("contracts.paused", len(paused)))
	return paused, nil
}

// AvailableStock reports the unreserved ledger quantity for an item type.
func (s *ContractService) AvailableStock(itemType string) int {
	return s.ledger.Available(itemType)
}

// mutate runs fn against the locked, freshly loaded contract and persists the
// result when fn succeeds. An empty span name skips tracing so callers that
// already opened a span do not nest a duplicate.
func (s *ContractService) mutate(ctx context.Context, spanName, contractID string, fn func(*contract.Contract) error) (contract.Contract, error) {
	if spanName != "" {
		var span trace.Span
		ctx, span = s.tracer.Start(ctx, spanName,
			trace.WithAttributes(attribute.String("contract.id", contractID)))
		defer span.End()
	}

	if contractID == "" {
		return contract.Contract{}, ErrEmptyContractID
	}
	unlock := s.lockContract(contractID)
	defer unlock()

	c, err := s.store.GetContract(ctx, contractID)
	if err != nil {
		return contract.Contract{}, mapStorageError(err)
	}
	if err := fn(&c); err != nil {
		return contract.Contract{}, err
	}
	if err := s.store.PutContract(ctx, c); err != nil {
		return contract.Contract{}, fmt.Errorf("persist contract: %w", err)
	}
	return cloneContract(c), nil
}

func mapStorageError(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.Wrap(apperrors.CodeNotFound, "contract not found", err)
	}
	return err
}

// cloneContract deep-copies the aggregate so callers cannot mutate stored
// state through returned slices and maps.
func cloneContract(c contract.Contract) contract.Contract {
	out := c
	out.Contributors = append([]contract.Contributor(nil), c.Contributors...)
	out.ReservedMaterials = make(map[string]int, len(c.ReservedMaterials))
	for itemType, qty := range c.ReservedMaterials {
		out.ReservedMaterials[itemType] = qty
	}
	out.Trials = make([]contract.Trial, 0, len(c.Trials))
	for _, trial := range c.Trials {
		copied := trial
		copied.Params = make(map[string]string, len(trial.Params))
		for k, v := range trial.Params {
			copied.Params[k] = v
		}
		out.Trials = append(out.Trials, copied)
	}
	return out
}

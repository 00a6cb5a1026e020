// Package contract implements the state machine for a long-running cooperative
// task: lifecycle transitions, pause reasons, contributor bookkeeping, and the
// material claims a contract holds against the economy ledger.
//
// Invalid lifecycle transitions are absorbed, not rejected: Activate, Pause,
// and Resolve report whether the transition applied and leave the contract
// untouched otherwise. Callers that need to distinguish a no-op from success
// check the returned bool. Whether silently ignoring Pause on a non-active
// contract is intentional product behavior is an open question inherited from
// the original system; the behavior is preserved as observed.
package contract

import (
	"fmt"
	"sort"
	"strings"
	"time"

	apperrors "github.com/valithor/inabsentia/internal/platform/errors"
	"github.com/valithor/inabsentia/internal/platform/id"
	"github.com/valithor/inabsentia/internal/services/game/domain/effort"
)

var (
	// ErrInvalidType indicates a missing or unknown contract type.
	ErrInvalidType = apperrors.New(apperrors.CodeContractInvalidType, "contract type is required")
	// ErrEmptyCharacterID indicates a missing character identifier.
	ErrEmptyCharacterID = apperrors.New(apperrors.CodeContractEmptyCharacterID, "character id is required")
	// ErrInvalidQuantity indicates a non-positive required material quantity.
	ErrInvalidQuantity = apperrors.New(apperrors.CodeContractInvalidQuantity, "material quantity must be greater than zero")
)

// Contributor tracks one character's accepted participation in a contract.
// Effort accumulates monotonically while the contract is active.
type Contributor struct {
	CharacterID string
	Effort      float64
	Expertise   float64
	WorkUnits   float64
	Approved    bool
}

// Trial records one experimental submission made against a contract.
type Trial struct {
	CharacterID string
	Params      map[string]string
	Observation string
	SubmittedAt time.Time
}

// Contract is the aggregate for a single cooperative task.
//
// ReservedMaterials is a claim against stock the ledger already granted; the
// contract owns the claim for its lifetime and never mutates ledger stock
// directly.
type Contract struct {
	ID                string
	Type              Type
	Status            Status
	PauseReason       string // non-empty iff Status == StatusPaused
	Contributors      []Contributor
	ReservedMaterials map[string]int
	Trials            []Trial
	LastContribution  time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CreateInput describes the data needed to create a contract.
type CreateInput struct {
	Type              string
	InitiatorID       string
	RequiredMaterials map[string]int
	Invited           []string
}

// New creates a pending contract with a generated ID and timestamps.
// The initiator is recorded as an approved contributor; invited characters
// start unapproved.
func New(input CreateInput, now func() time.Time, idGenerator func() (string, error)) (Contract, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	kind, ok := ParseType(input.Type)
	if !ok {
		return Contract{}, ErrInvalidType
	}
	initiator := strings.TrimSpace(input.InitiatorID)
	if initiator == "" {
		return Contract{}, ErrEmptyCharacterID
	}
	materials := make(map[string]int, len(input.RequiredMaterials))
	for itemType, qty := range input.RequiredMaterials {
		if strings.TrimSpace(itemType) == "" || qty <= 0 {
			return Contract{}, ErrInvalidQuantity
		}
		materials[strings.TrimSpace(itemType)] = qty
	}

	contractID, err := idGenerator()
	if err != nil {
		return Contract{}, fmt.Errorf("generate contract id: %w", err)
	}

	createdAt := now().UTC()
	c := Contract{
		ID:                contractID,
		Type:              kind,
		Status:            StatusPending,
		ReservedMaterials: materials,
		CreatedAt:         createdAt,
		UpdatedAt:         createdAt,
	}
	c.Contributors = append(c.Contributors, Contributor{CharacterID: initiator, Approved: true})
	for _, characterID := range input.Invited {
		c.Invite(strings.TrimSpace(characterID))
	}
	return c, nil
}

// Activate moves the contract to ACTIVE from PENDING or PAUSED and clears the
// pause reason. Calls from any other state are absorbed.
func (c *Contract) Activate() bool {
	if c.Status != StatusPending && c.Status != StatusPaused {
		return false
	}
	c.Status = StatusActive
	c.PauseReason = ""
	return true
}

// Pause moves the contract to PAUSED and stores the reason. Only an ACTIVE
// contract can pause; calls from any other state are absorbed so an existing
// pause reason is never overwritten. A pause without a reason is also
// absorbed, keeping the reason non-empty whenever the contract is PAUSED.
func (c *Contract) Pause(reason string) bool {
	if c.Status != StatusActive || reason == "" {
		return false
	}
	c.Status = StatusPaused
	c.PauseReason = reason
	return true
}

// Resolve moves the contract to RESOLVED from any state and clears the pause
// reason. Resolving an already-resolved contract is a no-op.
func (c *Contract) Resolve() bool {
	if c.Status == StatusResolved {
		return false
	}
	c.Status = StatusResolved
	c.PauseReason = ""
	return true
}

// Invite records a character as a pending contributor. Returns false when the
// character already has an entry.
func (c *Contract) Invite(characterID string) bool {
	if characterID == "" {
		return false
	}
	if c.contributor(characterID) != nil {
		return false
	}
	c.Contributors = append(c.Contributors, Contributor{CharacterID: characterID})
	return true
}

// Approve accepts a previously invited character. Returns false when the
// character has no entry.
func (c *Contract) Approve(characterID string) bool {
	entry := c.contributor(characterID)
	if entry == nil {
		return false
	}
	entry.Approved = true
	return true
}

// IsApproved reports whether the character may contribute effort.
func (c *Contract) IsApproved(characterID string) bool {
	entry := c.contributor(characterID)
	return entry != nil && entry.Approved
}

// Accumulate adds computed effort and work units to an approved contributor's
// entry and refreshes their expertise value. Returns false when the character
// is not an approved contributor.
func (c *Contract) Accumulate(characterID string, effortGained, expertise, workUnits float64, at time.Time) bool {
	entry := c.contributor(characterID)
	if entry == nil || !entry.Approved {
		return false
	}
	entry.Effort += effortGained
	entry.WorkUnits += workUnits
	entry.Expertise = expertise
	c.LastContribution = at.UTC()
	c.UpdatedAt = at.UTC()
	return true
}

// RecordTrial appends an experimental trial submission.
func (c *Contract) RecordTrial(trial Trial) {
	c.Trials = append(c.Trials, trial)
}

// ExpertiseShares returns the approved contributors' effort/expertise pairs
// for effort-proportional blending.
func (c *Contract) ExpertiseShares() []effort.Share {
	shares := make([]effort.Share, 0, len(c.Contributors))
	for _, entry := range c.Contributors {
		if !entry.Approved {
			continue
		}
		shares = append(shares, effort.Share{Effort: entry.Effort, Expertise: entry.Expertise})
	}
	return shares
}

// MaterialTypes returns the reserved item types in sorted order. Sorted order
// keeps multi-item ledger operations deterministic.
func (c *Contract) MaterialTypes() []string {
	types := make([]string, 0, len(c.ReservedMaterials))
	for itemType := range c.ReservedMaterials {
		types = append(types, itemType)
	}
	sort.Strings(types)
	return types
}

func (c *Contract) contributor(characterID string) *Contributor {
	for i := range c.Contributors {
		if c.Contributors[i].CharacterID == characterID {
			return &c.Contributors[i]
		}
	}
	return nil
}

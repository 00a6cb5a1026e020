// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Contract errors
	CodeContractEmptyID             Code = "CONTRACT_EMPTY_ID"
	CodeContractInvalidType         Code = "CONTRACT_INVALID_TYPE"
	CodeContractEmptyCharacterID    Code = "CONTRACT_EMPTY_CHARACTER_ID"
	CodeContractInvalidQuantity     Code = "CONTRACT_INVALID_QUANTITY"
	CodeContractNotActive           Code = "CONTRACT_NOT_ACTIVE"
	CodeContractResolved            Code = "CONTRACT_RESOLVED"
	CodeContractNotApproved         Code = "CONTRACT_CONTRIBUTOR_NOT_APPROVED"
	CodeContractAlreadyInvited      Code = "CONTRACT_CONTRIBUTOR_ALREADY_INVITED"
	CodeContractContributorUnknown  Code = "CONTRACT_CONTRIBUTOR_UNKNOWN"
	CodeContractInsufficientStock   Code = "CONTRACT_INSUFFICIENT_STOCK"
	CodeContractEmptyTrialParams    Code = "CONTRACT_EMPTY_TRIAL_PARAMS"
	CodeContractEmptyPauseReason    Code = "CONTRACT_EMPTY_PAUSE_REASON"

	// Effort errors
	CodeEffortInvalidReferenceValue Code = "EFFORT_INVALID_REFERENCE_VALUE"
	CodeEffortNegativeStamina       Code = "EFFORT_NEGATIVE_STAMINA"
	CodeEffortNegativeEfficiency    Code = "EFFORT_NEGATIVE_EFFICIENCY"
	CodeEffortNegativeSeconds       Code = "EFFORT_NEGATIVE_SECONDS"

	// Ledger errors
	CodeLedgerNegativeRelease Code = "LEDGER_NEGATIVE_RELEASE"

	// Catalog errors
	CodeCatalogInvalidStock Code = "CATALOG_INVALID_STOCK"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeContractEmptyID,
		CodeContractInvalidType,
		CodeContractEmptyCharacterID,
		CodeContractInvalidQuantity,
		CodeContractEmptyTrialParams,
		CodeContractEmptyPauseReason,
		CodeEffortInvalidReferenceValue,
		CodeEffortNegativeStamina,
		CodeEffortNegativeEfficiency,
		CodeEffortNegativeSeconds,
		CodeLedgerNegativeRelease,
		CodeCatalogInvalidStock:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeContractNotActive,
		CodeContractResolved,
		CodeContractNotApproved,
		CodeContractAlreadyInvited,
		CodeContractInsufficientStock:
		return codes.FailedPrecondition

	// NotFound - resource doesn't exist
	case CodeNotFound,
		CodeContractContributorUnknown:
		return codes.NotFound

	default:
		return codes.Internal
	}
}

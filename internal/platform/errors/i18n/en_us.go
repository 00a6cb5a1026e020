package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeContractEmptyID            = "CONTRACT_EMPTY_ID"
	CodeContractInvalidType        = "CONTRACT_INVALID_TYPE"
	CodeContractEmptyCharacterID   = "CONTRACT_EMPTY_CHARACTER_ID"
	CodeContractInvalidQuantity    = "CONTRACT_INVALID_QUANTITY"
	CodeContractNotActive          = "CONTRACT_NOT_ACTIVE"
	CodeContractResolved           = "CONTRACT_RESOLVED"
	CodeContractNotApproved        = "CONTRACT_CONTRIBUTOR_NOT_APPROVED"
	CodeContractAlreadyInvited     = "CONTRACT_CONTRIBUTOR_ALREADY_INVITED"
	CodeContractContributorUnknown = "CONTRACT_CONTRIBUTOR_UNKNOWN"
	CodeContractInsufficientStock  = "CONTRACT_INSUFFICIENT_STOCK"
	CodeContractEmptyTrialParams   = "CONTRACT_EMPTY_TRIAL_PARAMS"
	CodeContractEmptyPauseReason   = "CONTRACT_EMPTY_PAUSE_REASON"

	CodeEffortInvalidReferenceValue = "EFFORT_INVALID_REFERENCE_VALUE"
	CodeEffortNegativeStamina       = "EFFORT_NEGATIVE_STAMINA"
	CodeEffortNegativeEfficiency    = "EFFORT_NEGATIVE_EFFICIENCY"
	CodeEffortNegativeSeconds       = "EFFORT_NEGATIVE_SECONDS"

	CodeLedgerNegativeRelease = "LEDGER_NEGATIVE_RELEASE"

	CodeCatalogInvalidStock = "CATALOG_INVALID_STOCK"

	CodeNotFound = "NOT_FOUND"
)

var enUSCatalog = &Catalog{
	locale: "en-US",
	messages: map[Code]string{
		// Contract errors
		CodeContractEmptyID:            "Contract ID is required",
		CodeContractInvalidType:        "Invalid contract type specified",
		CodeContractEmptyCharacterID:   "Character ID is required",
		CodeContractInvalidQuantity:    "Material quantity must be greater than zero",
		CodeContractNotActive:          "Contract {{.ContractID}} is not active",
		CodeContractResolved:           "Contract {{.ContractID}} is already resolved",
		CodeContractNotApproved:        "Character {{.CharacterID}} is not approved for this contract",
		CodeContractAlreadyInvited:     "Character {{.CharacterID}} is already invited to this contract",
		CodeContractContributorUnknown: "Character {{.CharacterID}} has no pending invitation",
		CodeContractInsufficientStock:  "Not enough {{.ItemType}} in the stockpile: have {{.Have}}, need {{.Need}}",
		CodeContractEmptyTrialParams:   "Trial parameters cannot be empty",
		CodeContractEmptyPauseReason:   "Pause reason cannot be empty",

		// Effort errors
		CodeEffortInvalidReferenceValue: "Reference value must be greater than zero",
		CodeEffortNegativeStamina:       "Stamina drained must be non-negative",
		CodeEffortNegativeEfficiency:    "Efficiency must be non-negative",
		CodeEffortNegativeSeconds:       "Active seconds must be non-negative",

		// Ledger errors
		CodeLedgerNegativeRelease: "Release quantity must be non-negative",

		// Catalog errors
		CodeCatalogInvalidStock: "Catalog stock for {{.ItemType}} must be non-negative",

		// Storage errors
		CodeNotFound: "The requested resource was not found",
	},
}

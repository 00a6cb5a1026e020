package contract

import "strings"

// Type enumerates the cooperative task kinds a contract can represent.
type Type string

const (
	TypeUnspecified         Type = ""
	TypeKnowledgeCompletion Type = "KNOWLEDGE_COMPLETION"
	TypeResearch            Type = "RESEARCH"
	TypeCrafting            Type = "CRAFTING"
)

// ParseType canonicalizes a contract type label.
func ParseType(value string) (Type, bool) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "KNOWLEDGE_COMPLETION":
		return TypeKnowledgeCompletion, true
	case "RESEARCH":
		return TypeResearch, true
	case "CRAFTING":
		return TypeCrafting, true
	default:
		return TypeUnspecified, false
	}
}

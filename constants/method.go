package constants

// ProcessingMethod records how a document's fields were produced.
type ProcessingMethod string

// Stable values (store these exact strings in records).
const (
	MethodRuleBased  ProcessingMethod = "rule_based"
	MethodAIAssisted ProcessingMethod = "ai_assisted"
)

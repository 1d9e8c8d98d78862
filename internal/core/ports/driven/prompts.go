package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptSummarise creates summaries of document content.
	// The prompt template expects %d (max length) and %s (content) placeholders.
	PromptSummarise = "summarise"

	// PromptChatSystem is the system prompt for retrieval-augmented chat.
	// The prompt template expects a %s placeholder for the retrieved context.
	PromptChatSystem = "chat_system"

	// PromptClusterSummary describes a group of related documents.
	// The prompt template expects %s (group name) and %s (excerpts) placeholders.
	PromptClusterSummary = "cluster_summary"
)

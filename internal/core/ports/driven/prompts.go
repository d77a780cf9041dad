package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations return the embedded
	// default or an error when there is none.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used by the chat agent.
const (
	// PromptChatSystem is the system instruction for the portfolio agent.
	// This prompt has no format placeholders.
	PromptChatSystem = "chat_system"

	// PromptDocsContext wraps a question with retrieved documentation.
	// The template expects %s placeholders for the source label, the
	// context excerpts and the question, in that order.
	PromptDocsContext = "docs_context"

	// PromptReadDocumentation is the description of the read_documentation tool.
	// This prompt has no format placeholders.
	PromptReadDocumentation = "read_documentation"
)

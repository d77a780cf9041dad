package domain

import (
	"encoding/json"
	"time"
)

// ChatRole is the speaker of a conversation turn.
type ChatRole string

const (
	RoleUser  ChatRole = "user"
	RoleModel ChatRole = "model"
)

// ChatTurn is one persisted message of the chat transcript.
type ChatTurn struct {
	ID   string    `json:"id"`
	Role ChatRole  `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// ChatReply is what the chat agent returns for one user message.
type ChatReply struct {
	// Text is the answer shown to the user, or a readable error message.
	Text string

	// Failed marks Text as an error message rather than a model answer.
	Failed bool

	// Docs is the retrieval context used for this answer, if any.
	Docs *ContextResult

	// WebSearch reports whether the request carried the web search tool.
	WebSearch bool

	// Guest reports whether the shared guest key answered this message.
	Guest bool
}

// ToolKind selects the callable tools attached to a model request.
// Web search and function declarations are never sent together.
type ToolKind int

const (
	ToolsNone ToolKind = iota
	ToolsWebSearch
	ToolsFunctions
)

// FunctionDeclaration describes a callable tool the model may request.
type FunctionDeclaration struct {
	Name        string
	Description string

	// Parameters is an OpenAPI-style object schema.
	Parameters map[string]any
}

// FunctionCall is a model request to invoke a declared function.
type FunctionCall struct {
	Name string
	Args map[string]any
}

// FunctionResponse carries a function result back to the model.
type FunctionResponse struct {
	Name     string
	Response map[string]any
}

// LLMPart is one element of a conversation turn sent to or received from the model.
type LLMPart struct {
	Text             string
	FunctionCall     *FunctionCall
	FunctionResponse *FunctionResponse
}

// LLMContent is one conversation turn in a model request.
type LLMContent struct {
	Role  ChatRole
	Parts []LLMPart
}

// LLMRequest is a generative-language request.
type LLMRequest struct {
	APIKey            string
	SystemInstruction string
	Temperature       float64
	Contents          []LLMContent
	Tools             ToolKind
	Functions         []FunctionDeclaration
}

// LLMResponse is either plain text or a set of function-call requests.
type LLMResponse struct {
	Text          string
	FunctionCalls []FunctionCall

	// Raw is the undecoded response body, kept for diagnostics.
	Raw json.RawMessage
}

// Package domain defines the core entities of the documentation retrieval
// helper.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Chunk: A contiguous slice of extracted page text with its term bag
//   - Index: A crawled and chunked documentation source
//   - KnownSource: A compiled-in documentation catalog entry
//   - Intent: Classification of one user query
//   - ContextResult: The ranked context handed to the chat agent
//   - ChatTurn, LLMRequest, LLMResponse: The chat agent's conversation model
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain

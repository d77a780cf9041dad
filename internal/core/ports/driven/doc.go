// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - PageFetcher: Retrieves raw HTML through the fetch proxy
//   - PageParser: Extracts readable text and links from HTML
//   - Chunker: Splits page text into overlapping chunks
//   - KVStore: Persistent key-value storage (index cache, transcript, counters)
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Generative-language model. Without it, only retrieval works.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven

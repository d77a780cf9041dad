// Package services implements the driving port interfaces.
// Services contain the retrieval and chat logic and orchestrate
// calls to driven ports (adapters).
//
// The retrieval pipeline, leaf first:
//
//	Crawler     fetch -> parse -> chunk, breadth-first over one host
//	IndexCache  versioned, TTL-checked index persistence
//	IntentResolver  query -> known source | explicit URL | none
//	Scorer      TF-IDF plus pluggable boost rules
//	DocsService orchestration, context assembly
//
// ChatService sits on top and talks to the language model.
//
// Services are pure Go with no CGO.
package services

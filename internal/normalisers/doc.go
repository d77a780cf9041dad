// Package normalisers turns fetched pages into readable text for indexing.
//
// Normalisers are pure functions of their input: they never fail and
// never perform I/O.
package normalisers

// Package domain defines the core business entities for Promethean Light.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An ingested file, email or text snippet
//   - Chunk: A paragraph-packed slice of a document with its own vector
//   - Tag: A keyword attached to a document by the organizer
//   - Cluster: A semantic group discovered by the clustering cycle
//   - CorpusSnapshot: Counts used to skip redundant clustering cycles
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

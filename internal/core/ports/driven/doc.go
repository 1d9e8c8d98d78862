// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - DocumentStore, TagStore, ClusterStore: Relational persistence (SQLite)
//   - Cipher: Passphrase-derived encryption for secrets and blobs
//   - VectorStore: Chunk vectors with payloads (embedded badger directory)
//   - EmbeddingService: Generates vector embeddings
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Chat and generated summaries. Without it, summaries are extractive.
//   - Reducer: Dimensionality reduction. Without it, clustering is skipped and
//     organization is tag-only.
//   - BlobStore: Encrypted originals and the embedding cache.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven

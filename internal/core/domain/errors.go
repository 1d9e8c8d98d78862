package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	// Returned when a concurrent insert races on a unique content hash.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedPlatform indicates a watcher cannot run on this OS.
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Chat and generated summaries are disabled.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector store is not open.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// Crypto Errors.

	// ErrLocked indicates the database has not been unlocked with its passphrase.
	ErrLocked = errors.New("not available: database is locked")

	// ErrWrongPassphrase indicates the passphrase failed verification.
	ErrWrongPassphrase = errors.New("wrong passphrase")

	// ErrNotSetUp indicates no salt exists yet for this database.
	ErrNotSetUp = errors.New("database not set up")

	// ErrAlreadySetUp indicates setup was requested for an initialised database.
	ErrAlreadySetUp = errors.New("database already set up")

	// ErrInvalidCiphertext indicates a token failed authentication or is malformed.
	ErrInvalidCiphertext = errors.New("invalid ciphertext")

	// Storage Errors.

	// ErrDimensionMismatch indicates a populated vector collection was opened
	// with a model of a different dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrStoreLocked indicates another process holds the store directory.
	ErrStoreLocked = errors.New("store is in use by another process")

	// Organizer Errors.

	// ErrReducerUnavailable indicates no dimensionality reducer passed its self-check.
	ErrReducerUnavailable = errors.New("dimensionality reducer unavailable")
)

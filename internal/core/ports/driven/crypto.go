package driven

// Cipher encrypts secrets with a key derived from the database passphrase.
type Cipher interface {
	// Encrypt seals plaintext. Returns domain.ErrLocked before unlock.
	Encrypt(plaintext []byte) ([]byte, error)

	// Decrypt opens a token produced by Encrypt.
	Decrypt(token []byte) ([]byte, error)

	// EncryptString seals a string into a printable token.
	EncryptString(plaintext string) (string, error)

	// DecryptString opens a token produced by EncryptString.
	DecryptString(token string) (string, error)

	// IsUnlocked reports whether a key is loaded.
	IsUnlocked() bool
}

// BlobStore keeps encrypted originals and cached embeddings on disk.
type BlobStore interface {
	// PutFile stores the encrypted bytes of an ingested file.
	PutFile(id string, data []byte) error

	// GetFile returns the decrypted bytes of a stored file.
	GetFile(id string) ([]byte, error)

	// PutEmbedding caches a vector under a key.
	PutEmbedding(key string, vec []float32) error

	// GetEmbedding returns a cached vector. Returns domain.ErrNotFound when absent.
	GetEmbedding(key string) ([]float32, error)

	// Delete removes a stored file and its cached embeddings.
	Delete(id string) error

	// Hash returns the content digest used for exact deduplication.
	Hash(data []byte) string
}

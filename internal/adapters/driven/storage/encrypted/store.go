// Package encrypted stores file originals and cached embeddings on disk,
// sealed with the database cipher.
package encrypted

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
	"github.com/custodia-labs/promethean-light/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.BlobStore = (*Store)(nil)

const (
	filesDir      = "files"
	embeddingsDir = "embeddings"
	blobExt       = ".enc"
)

var safeKey = regexp.MustCompile(`^[A-Za-z0-9._:-]+$`)

// Store keeps encrypted blobs under a root directory.
type Store struct {
	root   string
	cipher driven.Cipher
}

// NewStore creates the blob directories under root.
func NewStore(root string, cipher driven.Cipher) (*Store, error) {
	if cipher == nil {
		return nil, fmt.Errorf("%w: cipher is required", domain.ErrInvalidInput)
	}
	for _, dir := range []string{filesDir, embeddingsDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0700); err != nil {
			return nil, fmt.Errorf("create blob directory: %w", err)
		}
	}
	return &Store{root: root, cipher: cipher}, nil
}

// PutFile stores the encrypted bytes of an ingested file.
func (s *Store) PutFile(id string, data []byte) error {
	return s.put(filesDir, id, data)
}

// GetFile returns the decrypted bytes of a stored file.
func (s *Store) GetFile(id string) ([]byte, error) {
	return s.get(filesDir, id)
}

// PutEmbedding caches a vector under a key.
func (s *Store) PutEmbedding(key string, vec []float32) error {
	return s.put(embeddingsDir, key, encodeVector(vec))
}

// GetEmbedding returns a cached vector.
func (s *Store) GetEmbedding(key string) ([]float32, error) {
	data, err := s.get(embeddingsDir, key)
	if err != nil {
		return nil, err
	}
	return decodeVector(data)
}

// Delete removes a stored file and every cached embedding for the ID.
func (s *Store) Delete(id string) error {
	if err := validKey(id); err != nil {
		return err
	}
	if err := os.Remove(s.path(filesDir, id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete file blob: %w", err)
	}
	matches, err := filepath.Glob(filepath.Join(s.root, embeddingsDir, "*"+id+blobExt))
	if err != nil {
		return fmt.Errorf("list embedding blobs: %w", err)
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("delete embedding blob: %w", err)
		}
	}
	return nil
}

// Hash returns the SHA-256 hex digest of data.
func (s *Store) Hash(data []byte) string {
	return HashBytes(data)
}

// HashBytes returns the SHA-256 hex digest of data.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (s *Store) put(dir, key string, data []byte) error {
	if err := validKey(key); err != nil {
		return err
	}
	sealed, err := s.cipher.Encrypt(data)
	if err != nil {
		return fmt.Errorf("encrypt blob: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Join(s.root, dir), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp blob: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(sealed); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close blob: %w", err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod blob: %w", err)
	}
	if err := os.Rename(tmpName, s.path(dir, key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename blob: %w", err)
	}
	return nil
}

func (s *Store) get(dir, key string) ([]byte, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	sealed, err := os.ReadFile(s.path(dir, key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	data, err := s.cipher.Decrypt(sealed)
	if err != nil {
		return nil, fmt.Errorf("decrypt blob: %w", err)
	}
	return data, nil
}

func (s *Store) path(dir, key string) string {
	return filepath.Join(s.root, dir, key+blobExt)
}

func validKey(key string) error {
	if key == "" || strings.Contains(key, "..") || !safeKey.MatchString(key) {
		return fmt.Errorf("%w: blob key %q", domain.ErrInvalidInput, key)
	}
	return nil
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: vector blob length %d", domain.ErrInvalidCiphertext, len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}

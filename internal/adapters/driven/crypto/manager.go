// Package crypto derives the database key from a passphrase and provides
// Fernet encryption for secrets and blobs, plus HKDF subkeys for stores
// that bring their own cipher.
package crypto

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/fernet/fernet-go"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
	"github.com/custodia-labs/promethean-light/internal/core/ports/driven"
)

// Ensure Manager implements the interface.
var _ driven.Cipher = (*Manager)(nil)

const (
	// SaltFile holds the random per-database salt.
	SaltFile = "salt"

	// CheckFile holds the salt as a Fernet token under the derived key.
	CheckFile = "keycheck"

	// DefaultIterations is the PBKDF2-HMAC-SHA256 work factor.
	DefaultIterations = 600000

	saltSize = 32

	// keySize is a Fernet key: 16 bytes signing, 16 bytes AES-128.
	keySize = len(fernet.Key{})

	// noExpiry disables Fernet timestamp checks; stored tokens never expire.
	noExpiry = -1
)

// Manager holds the passphrase-derived key for one database directory.
// The key lives in memory only and is never written to disk.
type Manager struct {
	dir        string
	iterations int

	mu  sync.RWMutex
	key *fernet.Key
}

// Option configures a Manager.
type Option func(*Manager)

// WithIterations overrides the PBKDF2 iteration count.
func WithIterations(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.iterations = n
		}
	}
}

// NewManager creates a locked manager for the given database directory.
func NewManager(dir string, opts ...Option) *Manager {
	m := &Manager{dir: dir, iterations: DefaultIterations}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// IsSetUp reports whether a salt exists for this database.
func (m *Manager) IsSetUp() bool {
	_, err := os.Stat(filepath.Join(m.dir, SaltFile))
	return err == nil
}

// Setup creates the passphrase check file and then the salt, then unlocks.
// The salt marks a database as set up, so it is written last and atomically.
func (m *Manager) Setup(passphrase string) error {
	if passphrase == "" {
		return fmt.Errorf("%w: empty passphrase", domain.ErrInvalidInput)
	}
	if m.IsSetUp() {
		return domain.ErrAlreadySetUp
	}
	if err := os.MkdirAll(m.dir, 0700); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("generate salt: %w", err)
	}
	key := m.derive(passphrase, salt)

	check, err := fernet.EncryptAndSign(salt, key)
	if err != nil {
		return fmt.Errorf("seal key check: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(m.dir, CheckFile), check); err != nil {
		return fmt.Errorf("write key check: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(m.dir, SaltFile), salt); err != nil {
		return fmt.Errorf("write salt: %w", err)
	}

	m.mu.Lock()
	m.key = key
	m.mu.Unlock()
	return nil
}

// Unlock derives the key and verifies it against the check file.
// A wrong passphrase returns domain.ErrWrongPassphrase.
func (m *Manager) Unlock(passphrase string) error {
	salt, err := os.ReadFile(filepath.Join(m.dir, SaltFile))
	if errors.Is(err, os.ErrNotExist) {
		return domain.ErrNotSetUp
	}
	if err != nil {
		return fmt.Errorf("read salt: %w", err)
	}
	if len(salt) != saltSize {
		return fmt.Errorf("read salt: %w: unexpected length %d", domain.ErrInvalidInput, len(salt))
	}
	check, err := os.ReadFile(filepath.Join(m.dir, CheckFile))
	if err != nil {
		return fmt.Errorf("read key check: %w", err)
	}

	key := m.derive(passphrase, salt)
	plain := fernet.VerifyAndDecrypt(check, noExpiry, []*fernet.Key{key})
	if plain == nil || !bytes.Equal(plain, salt) {
		return domain.ErrWrongPassphrase
	}

	m.mu.Lock()
	m.key = key
	m.mu.Unlock()
	return nil
}

// IsUnlocked reports whether a key is loaded.
func (m *Manager) IsUnlocked() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.key != nil
}

// Encrypt returns a Fernet token for plaintext. Tokens are URL-safe
// base64 text with a fresh random IV each call.
func (m *Manager) Encrypt(plaintext []byte) ([]byte, error) {
	key, err := m.currentKey()
	if err != nil {
		return nil, err
	}
	return fernet.EncryptAndSign(plaintext, key)
}

// Decrypt verifies and opens a token produced by Encrypt.
func (m *Manager) Decrypt(token []byte) ([]byte, error) {
	key, err := m.currentKey()
	if err != nil {
		return nil, err
	}
	plain := fernet.VerifyAndDecrypt(token, noExpiry, []*fernet.Key{key})
	if plain == nil {
		return nil, domain.ErrInvalidCiphertext
	}
	return plain, nil
}

// EncryptString seals a string into a Fernet token.
func (m *Manager) EncryptString(plaintext string) (string, error) {
	token, err := m.Encrypt([]byte(plaintext))
	if err != nil {
		return "", err
	}
	return string(token), nil
}

// DecryptString opens a token produced by EncryptString.
func (m *Manager) DecryptString(token string) (string, error) {
	plain, err := m.Decrypt([]byte(token))
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// Subkey derives an independent 32-byte key for another at-rest store.
func (m *Manager) Subkey(purpose string) ([]byte, error) {
	key, err := m.currentKey()
	if err != nil {
		return nil, err
	}
	out := make([]byte, 32)
	r := hkdf.New(sha256.New, key[:], nil, []byte("promethean:"+purpose))
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("derive subkey: %w", err)
	}
	return out, nil
}

func (m *Manager) currentKey() (*fernet.Key, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.key == nil {
		return nil, domain.ErrLocked
	}
	return m.key, nil
}

func (m *Manager) derive(passphrase string, salt []byte) *fernet.Key {
	var key fernet.Key
	copy(key[:], pbkdf2.Key([]byte(passphrase), salt, m.iterations, keySize, sha256.New))
	return &key
}

// writeFileAtomic writes data to a 0600 temp file and renames it over path.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

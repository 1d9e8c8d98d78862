// Package filesystem reads and watches local files for ingestion.
package filesystem

import (
	"fmt"
	"os"
	"os/user"
	"strconv"

	"github.com/custodia-labs/promethean-light/internal/core/domain"
	"github.com/custodia-labs/promethean-light/internal/core/ports/driven"
)

// DefaultMaxFileSize caps how many bytes are read from one file.
const DefaultMaxFileSize = 20 << 20

// Ensure Reader implements the interface.
var _ driven.FileReader = (*Reader)(nil)

// Reader reads file bytes and metadata from the local disk.
type Reader struct {
	maxSize int64
}

// NewReader creates a reader. A non-positive maxSize uses DefaultMaxFileSize.
func NewReader(maxSize int64) *Reader {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &Reader{maxSize: maxSize}
}

// ReadFile returns the content of a regular file with its metadata.
func (r *Reader) ReadFile(path string) ([]byte, *domain.FileMeta, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, nil, fmt.Errorf("%s: not a regular file", path)
	}
	if info.Size() > r.maxSize {
		return nil, nil, fmt.Errorf("%s: %d bytes exceeds limit of %d", path, info.Size(), r.maxSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	meta := &domain.FileMeta{
		ModTime:    info.ModTime(),
		ChangeTime: info.ModTime(),
		Size:       info.Size(),
	}
	if ctime, uid, ok := statSys(info); ok {
		meta.ChangeTime = ctime
		meta.Owner = lookupOwner(uid)
	}
	return data, meta, nil
}

// lookupOwner resolves a uid to a user name, falling back to the number.
func lookupOwner(uid uint32) string {
	id := strconv.FormatUint(uint64(uid), 10)
	if u, err := user.LookupId(id); err == nil {
		return u.Username
	}
	return id
}

//go:build !linux && !darwin

package filesystem

import (
	"os"
	"time"
)

// statSys has no change time or owner on this platform.
func statSys(_ os.FileInfo) (time.Time, uint32, bool) {
	return time.Time{}, 0, false
}

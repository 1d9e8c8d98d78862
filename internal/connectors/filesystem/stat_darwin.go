//go:build darwin

package filesystem

import (
	"os"
	"syscall"
	"time"
)

func statSys(info os.FileInfo) (time.Time, uint32, bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return time.Time{}, 0, false
	}
	return time.Unix(st.Ctimespec.Sec, st.Ctimespec.Nsec), st.Uid, true
}

//go:build linux

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
	return time.Unix(int64(st.Ctim.Sec), int64(st.Ctim.Nsec)), st.Uid, true
}

//go:build darwin

package storage

import (
	"os"
	"syscall"
)

func fileTimes(info os.FileInfo) (created, accessed, modified int64) {
	modified = info.ModTime().Unix()
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		created = st.Birthtimespec.Sec
		accessed = st.Atimespec.Sec
	}
	return created, accessed, modified
}

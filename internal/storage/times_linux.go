//go:build linux

package storage

import (
	"os"
	"syscall"
)

// fileTimes extracts created, last-access, and last-modified epoch seconds.
// Linux exposes no birth time through Stat_t, so the inode change time
// stands in for creation, matching what stat(1) shows.
func fileTimes(info os.FileInfo) (created, accessed, modified int64) {
	modified = info.ModTime().Unix()
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		created = st.Ctim.Sec
		accessed = st.Atim.Sec
	}
	return created, accessed, modified
}

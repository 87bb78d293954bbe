//go:build !linux && !darwin

package storage

import "os"

// fileTimes on platforms without a portable stat extension reports only the
// modification time; the others read zero.
func fileTimes(info os.FileInfo) (created, accessed, modified int64) {
	return 0, 0, info.ModTime().Unix()
}

// Package platform wraps best-effort filesystem hints. Every call is
// advisory: failures are ignored and non-Linux builds are no-ops.
package platform

import "os"

// PreallocateFile reserves size bytes for f when size is positive.
func PreallocateFile(f *os.File, size int64) {
	if f == nil || size <= 0 {
		return
	}
	preallocate(f, size)
}

// AdviseSequential tells the kernel f will be read front to back.
func AdviseSequential(f *os.File) {
	if f == nil {
		return
	}
	adviseSequential(f)
}

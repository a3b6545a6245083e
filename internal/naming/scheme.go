// Package naming maps (base name, sequence number, chunk count) to chunk
// filenames and computes the immutable plan for a split or merge.
package naming

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Scheme is a deterministic chunk naming algorithm. Sequence numbers are
// 1-based. Width is the number of suffix characters, fixed for a whole set.
type Scheme interface {
	Name() string
	// Width returns the suffix width needed for a set of n chunks.
	Width(n int) int
	ChunkName(base string, seq, width int) string
	// Match reports whether filename is the first chunk of a set in this
	// scheme, returning the original base name and suffix width.
	Match(filename string) (base string, width int, ok bool)
	// Header reports whether the first chunk starts with a Header.
	Header() bool
}

var (
	// Numeric names chunks name.001, name.002, ...
	Numeric Scheme = numericScheme{}
	// Alpha names chunks name.aa, name.ab, ... like coreutils split.
	Alpha Scheme = alphaScheme{}
	// Headered names chunks name.001.spl, ... and stores a Header at the
	// start of the first chunk.
	Headered Scheme = headerScheme{}
)

var schemes = []Scheme{Headered, Numeric, Alpha}

// Lookup returns the scheme registered under name.
//
//nolint:ireturn // registry lookup returns interface by design
func Lookup(name string) (Scheme, error) {
	for _, s := range schemes {
		if s.Name() == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("unknown naming scheme %q (use %s)", name, strings.Join(Names(), ", "))
}

// Names lists the registered scheme names.
func Names() []string {
	names := make([]string, len(schemes))
	for i, s := range schemes {
		names[i] = s.Name()
	}
	return names
}

type numericScheme struct{}

func (numericScheme) Name() string { return "numeric" }
func (numericScheme) Header() bool { return false }

func (numericScheme) Width(n int) int {
	return max(3, len(strconv.Itoa(n)))
}

func (numericScheme) ChunkName(base string, seq, width int) string {
	return fmt.Sprintf("%s.%0*d", base, width, seq)
}

func (numericScheme) Match(filename string) (string, int, bool) {
	ext := filepath.Ext(filename)
	digits := strings.TrimPrefix(ext, ".")
	if len(digits) < 3 || len(filename) == len(ext) {
		return "", 0, false
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return "", 0, false
		}
	}
	if n, err := strconv.Atoi(digits); err != nil || n != 1 {
		return "", 0, false
	}
	return strings.TrimSuffix(filename, ext), len(digits), true
}

type alphaScheme struct{}

func (alphaScheme) Name() string { return "alpha" }
func (alphaScheme) Header() bool { return false }

func (alphaScheme) Width(n int) int {
	w := 2
	for capacity := 26 * 26; capacity < n; capacity *= 26 {
		w++
	}
	return w
}

func (alphaScheme) ChunkName(base string, seq, width int) string {
	suffix := make([]byte, width)
	v := seq - 1
	for i := width - 1; i >= 0; i-- {
		suffix[i] = byte('a' + v%26)
		v /= 26
	}
	return base + "." + string(suffix)
}

func (alphaScheme) Match(filename string) (string, int, bool) {
	ext := filepath.Ext(filename)
	letters := strings.TrimPrefix(ext, ".")
	if len(letters) < 2 || len(filename) == len(ext) {
		return "", 0, false
	}
	if strings.Trim(letters, "a") != "" {
		return "", 0, false
	}
	return strings.TrimSuffix(filename, ext), len(letters), true
}

// headerExt is appended to numeric names in the Headered scheme.
const headerExt = ".spl"

type headerScheme struct{}

func (headerScheme) Name() string { return "header" }
func (headerScheme) Header() bool { return true }

func (headerScheme) Width(n int) int { return numericScheme{}.Width(n) }

func (headerScheme) ChunkName(base string, seq, width int) string {
	return numericScheme{}.ChunkName(base, seq, width) + headerExt
}

func (headerScheme) Match(filename string) (string, int, bool) {
	if !strings.HasSuffix(filename, headerExt) {
		return "", 0, false
	}
	return numericScheme{}.Match(strings.TrimSuffix(filename, headerExt))
}

// alphaLimit is the number of chunks an alpha suffix of width w can name.
func alphaLimit(w int) int {
	n := 1
	for range w {
		n *= 26
	}
	return n
}

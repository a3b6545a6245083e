package naming

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinylib/msgp/msgp"
)

func TestNumericNames(t *testing.T) {
	tests := []struct {
		want  string
		seq   int
		total int
	}{
		{want: "data.bin.001", seq: 1, total: 4},
		{want: "data.bin.004", seq: 4, total: 4},
		{want: "data.bin.999", seq: 999, total: 999},
		{want: "data.bin.0001", seq: 1, total: 1000},
		{want: "data.bin.1000", seq: 1000, total: 1000},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			w := Numeric.Width(tt.total)
			assert.Equal(t, tt.want, Numeric.ChunkName("data.bin", tt.seq, w))
		})
	}
}

func TestAlphaNames(t *testing.T) {
	tests := []struct {
		want  string
		seq   int
		total int
	}{
		{want: "x.aa", seq: 1, total: 3},
		{want: "x.ab", seq: 2, total: 3},
		{want: "x.ba", seq: 27, total: 30},
		{want: "x.zz", seq: 676, total: 676},
		{want: "x.aaa", seq: 1, total: 677},
		{want: "x.aba", seq: 27, total: 677},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			w := Alpha.Width(tt.total)
			assert.Equal(t, tt.want, Alpha.ChunkName("x", tt.seq, w))
		})
	}
}

func TestHeaderedNames(t *testing.T) {
	assert.Equal(t, "movie.mkv.001.spl", Headered.ChunkName("movie.mkv", 1, Headered.Width(12)))
	assert.Equal(t, "movie.mkv.012.spl", Headered.ChunkName("movie.mkv", 12, Headered.Width(12)))
}

func TestMatch(t *testing.T) {
	tests := []struct {
		scheme Scheme
		name   string
		base   string
		width  int
		ok     bool
	}{
		{scheme: Numeric, name: "a.txt.001", base: "a.txt", width: 3, ok: true},
		{scheme: Numeric, name: "a.txt.0001", base: "a.txt", width: 4, ok: true},
		{scheme: Numeric, name: "a.txt.002", ok: false},
		{scheme: Numeric, name: "a.txt.01", ok: false},
		{scheme: Numeric, name: ".001", ok: false},
		{scheme: Numeric, name: "a.txt", ok: false},
		{scheme: Alpha, name: "a.txt.aa", base: "a.txt", width: 2, ok: true},
		{scheme: Alpha, name: "a.aaa", base: "a", width: 3, ok: true},
		{scheme: Alpha, name: "a.ab", ok: false},
		{scheme: Alpha, name: "a.tar", ok: false},
		{scheme: Alpha, name: "a.a", ok: false},
		{scheme: Headered, name: "a.bin.001.spl", base: "a.bin", width: 3, ok: true},
		{scheme: Headered, name: "a.bin.001", ok: false},
		{scheme: Headered, name: "a.bin.002.spl", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.scheme.Name()+"/"+tt.name, func(t *testing.T) {
			base, width, ok := tt.scheme.Match(tt.name)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.base, base)
				assert.Equal(t, tt.width, width)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"numeric", "alpha", "header"} {
		s, err := Lookup(name)
		require.NoError(t, err)
		assert.Equal(t, name, s.Name())
	}
	_, err := Lookup("roman")
	assert.ErrorContains(t, err, "unknown naming scheme")
	assert.ElementsMatch(t, []string{"numeric", "alpha", "header"}, Names())
}

func TestNew_ChunkMath(t *testing.T) {
	p, err := New("/data/big.iso", "", 10_000_000, 3_000_000, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, p.Chunks)
	assert.Equal(t, "/data", p.Dir)
	assert.Equal(t, "big.iso", p.Name)
	assert.Equal(t, Numeric, p.Scheme)
	assert.Equal(t, []int64{3_000_000, 3_000_000, 3_000_000, 1_000_000},
		[]int64{p.ChunkLen(1), p.ChunkLen(2), p.ChunkLen(3), p.ChunkLen(4)})
	assert.Zero(t, p.ChunkLen(0))
	assert.Zero(t, p.ChunkLen(5))
	assert.Equal(t, []string{
		"/data/big.iso.001", "/data/big.iso.002", "/data/big.iso.003", "/data/big.iso.004",
	}, p.ChunkPaths())
}

func TestNew_ExactMultiple(t *testing.T) {
	p, err := New("f", "out", 9, 3, Alpha)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Chunks)
	assert.Equal(t, int64(3), p.ChunkLen(3))
	assert.Equal(t, filepath.Join("out", "f.ac"), p.ChunkPath(3))
}

func TestNew_InvalidChunkSize(t *testing.T) {
	for _, cs := range []int64{0, -1, 11} {
		_, err := New("f", "", 10, cs, Numeric)
		assert.ErrorIs(t, err, ErrInvalidChunkSize, "chunk size %d", cs)
	}
	_, err := New("f", "", 10, 10, Numeric)
	assert.NoError(t, err)
}

func TestNew_HeaderedRecordsHeaderLen(t *testing.T) {
	p, err := New("/x/movie.mkv", "/y", 1000, 300, Headered)
	require.NoError(t, err)

	hdr := AppendHeader(nil, p.Header())
	assert.Equal(t, int64(len(hdr)), p.HeaderLen)
	assert.Equal(t, p.HeaderLen+300, p.FileLen(1))
	assert.Equal(t, int64(100), p.FileLen(4))
}

func TestForFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(src, bytes.Repeat([]byte("z"), 25), 0o644))

	p, err := ForFile(src, "", 10, Numeric)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Chunks)
	assert.Equal(t, int64(5), p.ChunkLen(3))

	_, err = ForFile(filepath.Join(dir, "missing"), "", 10, Numeric)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestHeader_RoundTrip(t *testing.T) {
	h := Header{Version: HeaderVersion, Name: "movie.mkv", Size: 1000, ChunkSize: 300, Chunks: 4}
	b := AppendHeader(nil, h)

	got, n, err := ReadHeader(bytes.NewReader(append(b, "payload"...)))
	require.NoError(t, err)
	assert.Equal(t, h, got)
	assert.Equal(t, int64(len(b)), n)
}

func TestHeader_UnknownFieldsSkipped(t *testing.T) {
	var payload []byte
	payload = msgp.AppendMapHeader(payload, 6)
	payload = msgp.AppendString(payload, "version")
	payload = msgp.AppendInt(payload, 1)
	payload = msgp.AppendString(payload, "future")
	payload = msgp.AppendArrayHeader(payload, 2)
	payload = msgp.AppendInt(payload, 7)
	payload = msgp.AppendString(payload, "x")
	payload = msgp.AppendString(payload, "name")
	payload = msgp.AppendString(payload, "n")
	payload = msgp.AppendString(payload, "size")
	payload = msgp.AppendInt64(payload, 10)
	payload = msgp.AppendString(payload, "chunks")
	payload = msgp.AppendInt(payload, 2)
	payload = msgp.AppendString(payload, "chunk_size")
	payload = msgp.AppendInt64(payload, 5)

	b := []byte(headerMagic)
	b = append(b, 0, 0, 0, byte(len(payload)))
	b = append(b, payload...)

	h, n, err := ReadHeader(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, "n", h.Name)
	assert.Equal(t, int64(10), h.Size)
	assert.Equal(t, 2, h.Chunks)
	assert.Equal(t, int64(len(b)), n)
}

func TestHeader_Invalid(t *testing.T) {
	valid := AppendHeader(nil, Header{Version: 1, Name: "n", Size: 10, ChunkSize: 5, Chunks: 2})

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "bad magic", data: append([]byte("NOPE"), valid[4:]...)},
		{name: "truncated", data: valid[:len(valid)-3]},
		{name: "huge length", data: append([]byte("SPLN\xff\xff\xff\xff"), valid[8:]...)},
		{name: "bad version", data: AppendHeader(nil, Header{Version: 9, Size: 10, ChunkSize: 5, Chunks: 2})},
		{name: "count mismatch", data: AppendHeader(nil, Header{Version: 1, Size: 10, ChunkSize: 5, Chunks: 3})},
		{name: "zero size", data: AppendHeader(nil, Header{Version: 1, Size: 0, ChunkSize: 5, Chunks: 1})},
		{name: "parent name", data: AppendHeader(nil, Header{Version: 1, Name: "..", Size: 10, ChunkSize: 5, Chunks: 2})},
		{name: "dot name", data: AppendHeader(nil, Header{Version: 1, Name: ".", Size: 10, ChunkSize: 5, Chunks: 2})},
		{name: "root name", data: AppendHeader(nil, Header{Version: 1, Name: "/", Size: 10, ChunkSize: 5, Chunks: 2})},
		{name: "nested name", data: AppendHeader(nil, Header{Version: 1, Name: "../etc/passwd", Size: 10, ChunkSize: 5, Chunks: 2})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ReadHeader(bytes.NewReader(tt.data))
			assert.ErrorIs(t, err, ErrBadHeader)
		})
	}
}

func writeChunks(t *testing.T, dir string, names map[string]string) {
	t.Helper()
	for name, content := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func TestDiscover_Numeric(t *testing.T) {
	dir := t.TempDir()
	writeChunks(t, dir, map[string]string{
		"f.001": "aaaa",
		"f.002": "bbbb",
		"f.003": "cc",
		"g.005": "other set",
	})

	p, err := Discover(filepath.Join(dir, "f.001"))
	require.NoError(t, err)
	assert.Equal(t, Numeric, p.Scheme)
	assert.Equal(t, "f", p.Name)
	assert.Equal(t, 3, p.Chunks)
	assert.Equal(t, int64(10), p.TotalSize)
	assert.Equal(t, int64(4), p.ChunkSize)
	assert.Equal(t, int64(2), p.ChunkLen(3))
	assert.Zero(t, p.HeaderLen)
}

func TestDiscover_GapInSet(t *testing.T) {
	tests := []struct {
		name    string
		files   []string
		first   string
		missing string
	}{
		{name: "numeric", files: []string{"f.001", "f.002", "f.004"}, first: "f.001", missing: "f.003"},
		{name: "numeric far", files: []string{"f.001", "f.009"}, first: "f.001", missing: "f.002"},
		{name: "alpha", files: []string{"f.aa", "f.ac"}, first: "f.aa", missing: "f.ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, name := range tt.files {
				writeChunks(t, dir, map[string]string{name: "data"})
			}

			_, err := Discover(filepath.Join(dir, tt.first))
			require.ErrorIs(t, err, os.ErrNotExist)
			var pathErr *fs.PathError
			require.ErrorAs(t, err, &pathErr)
			assert.Equal(t, filepath.Join(dir, tt.missing), pathErr.Path)
		})
	}
}

func TestDiscover_IgnoresWiderSuffixes(t *testing.T) {
	dir := t.TempDir()
	writeChunks(t, dir, map[string]string{"f.001": "ab", "f.002": "c", "f.0004": "x", "f.aa": "y"})

	p, err := Discover(filepath.Join(dir, "f.001"))
	require.NoError(t, err)
	assert.Equal(t, 2, p.Chunks)
	assert.Equal(t, int64(3), p.TotalSize)
}

func TestDiscover_Alpha(t *testing.T) {
	dir := t.TempDir()
	writeChunks(t, dir, map[string]string{"f.aa": "12", "f.ab": "3"})

	p, err := Discover(filepath.Join(dir, "f.aa"))
	require.NoError(t, err)
	assert.Equal(t, Alpha, p.Scheme)
	assert.Equal(t, 2, p.Chunks)
	assert.Equal(t, int64(3), p.TotalSize)
	assert.Equal(t, filepath.Join(dir, "f.ab"), p.ChunkPath(2))
}

func TestDiscover_Headered(t *testing.T) {
	dir := t.TempDir()
	hdr := AppendHeader(nil, Header{Version: 1, Name: "orig.bin", Size: 7, ChunkSize: 4, Chunks: 2})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orig.bin.001.spl"), append(hdr, "abcd"...), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orig.bin.002.spl"), []byte("efg"), 0o644))

	p, err := Discover(filepath.Join(dir, "orig.bin.001.spl"))
	require.NoError(t, err)
	assert.Equal(t, Headered, p.Scheme)
	assert.Equal(t, "orig.bin", p.Name)
	assert.Equal(t, int64(7), p.TotalSize)
	assert.Equal(t, 2, p.Chunks)
	assert.Equal(t, int64(len(hdr)), p.HeaderLen)
	assert.Equal(t, int64(3), p.ChunkLen(2))
}

func TestDiscover_HeaderedRenamedSet(t *testing.T) {
	dir := t.TempDir()
	hdr := AppendHeader(nil, Header{Version: 1, Name: "orig.bin", Size: 3, ChunkSize: 3, Chunks: 1})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "renamed.001.spl"), append(hdr, "abc"...), 0o644))

	p, err := Discover(filepath.Join(dir, "renamed.001.spl"))
	require.NoError(t, err)
	assert.Equal(t, "orig.bin", p.Name)
	assert.Equal(t, filepath.Join(dir, "renamed.001.spl"), p.ChunkPath(1))
}

func TestDiscover_HeaderedMissingChunk(t *testing.T) {
	dir := t.TempDir()
	hdr := AppendHeader(nil, Header{Version: 1, Name: "o", Size: 7, ChunkSize: 4, Chunks: 2})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "o.001.spl"), append(hdr, "abcd"...), 0o644))

	_, err := Discover(filepath.Join(dir, "o.001.spl"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDiscover_HeaderedUnsafeName(t *testing.T) {
	dir := t.TempDir()
	hdr := AppendHeader(nil, Header{Version: 1, Name: "..", Size: 3, ChunkSize: 3, Chunks: 1})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.001.spl"), append(hdr, "abc"...), 0o644))

	_, err := Discover(filepath.Join(dir, "x.001.spl"))
	assert.ErrorIs(t, err, ErrBadHeader)
}

func TestDiscover_Errors(t *testing.T) {
	dir := t.TempDir()
	writeChunks(t, dir, map[string]string{"plain.txt": "x"})

	_, err := Discover(filepath.Join(dir, "plain.txt"))
	assert.ErrorIs(t, err, ErrUnknownScheme)

	_, err = Discover(filepath.Join(dir, "nope.001"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.001.spl"), []byte("garbage!!"), 0o644))
	_, err = Discover(filepath.Join(dir, "bad.001.spl"))
	assert.ErrorIs(t, err, ErrBadHeader)
}

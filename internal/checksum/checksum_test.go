package checksum

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/splinter/internal/stats"
)

func TestHashFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	h1, err := HashFile(path)
	require.NoError(t, err)
	assert.Len(t, h1, 64)

	// Same content should produce the same hash.
	path2 := filepath.Join(dir, "test2.txt")
	require.NoError(t, os.WriteFile(path2, []byte("hello world"), 0o644))
	h2, err := HashFile(path2)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	// Different content should produce a different hash.
	path3 := filepath.Join(dir, "test3.txt")
	require.NoError(t, os.WriteFile(path3, []byte("different content"), 0o644))
	h3, err := HashFile(path3)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}

func TestHashFileKnownDigest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	h, err := HashFile(path)
	require.NoError(t, err)
	// BLAKE3 of the empty input.
	assert.Equal(t, "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262", h)
}

func TestHashFileNotExist(t *testing.T) {
	_, err := HashFile("/nonexistent/file")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func writeFiles(t *testing.T, dir string, files map[string]string) []string {
	t.Helper()
	var paths []string
	for _, name := range []string{"f.001", "f.002", "f.003", "f"} {
		content, ok := files[name]
		if !ok {
			continue
		}
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		paths = append(paths, p)
	}
	return paths
}

func TestBuildWriteRead(t *testing.T) {
	dir := t.TempDir()
	paths := writeFiles(t, dir, map[string]string{
		"f.001": "aaa", "f.002": "bbb", "f.003": "c", "f": "aaabbbc",
	})

	entries, err := Build(context.Background(), paths, 2)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	for i, e := range entries {
		assert.Equal(t, filepath.Base(paths[i]), e.Name)
		want, err := HashFile(paths[i])
		require.NoError(t, err)
		assert.Equal(t, want, e.Sum)
	}

	manifest := ManifestPath(dir, "f")
	assert.Equal(t, filepath.Join(dir, "f.b3"), manifest)
	require.NoError(t, Write(manifest, entries))

	raw, err := os.ReadFile(manifest)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, entries[0].Sum+"  f.001", lines[0])

	got, err := Read(manifest)
	require.NoError(t, err)
	assert.Equal(t, entries, got)

	sum, ok := Lookup(got, "f")
	assert.True(t, ok)
	assert.Equal(t, entries[3].Sum, sum)
	_, ok = Lookup(got, "g")
	assert.False(t, ok)
}

func TestBuildMissingFile(t *testing.T) {
	_, err := Build(context.Background(), []string{filepath.Join(t.TempDir(), "nope")}, 0)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteRejectsNewlines(t *testing.T) {
	err := Write(filepath.Join(t.TempDir(), "m.b3"), []Entry{{Name: "a\nb", Sum: "00"}})
	assert.ErrorContains(t, err, "newline")
}

func TestReadMalformed(t *testing.T) {
	good := strings.Repeat("ab", 32)
	tests := []struct {
		name    string
		content string
	}{
		{name: "single space", content: good + " f.001\n"},
		{name: "short digest", content: "abcd  f.001\n"},
		{name: "not hex", content: strings.Repeat("zz", 32) + "  f.001\n"},
		{name: "no name", content: good + "  \n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "m.b3")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			_, err := Read(path)
			assert.Error(t, err)
		})
	}
}

func TestReadSkipsBlankLinesAndLowercases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.b3")
	upper := strings.Repeat("AB", 32)
	require.NoError(t, os.WriteFile(path, []byte("\n"+upper+"  name with spaces\n\n"), 0o644))

	entries, err := Read(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "name with spaces", entries[0].Name)
	assert.Equal(t, strings.ToLower(upper), entries[0].Sum)
}

func TestVerify(t *testing.T) {
	dir := t.TempDir()
	paths := writeFiles(t, dir, map[string]string{"f.001": "aaa", "f.002": "bbb", "f.003": "c"})
	entries, err := Build(context.Background(), paths, 0)
	require.NoError(t, err)

	c := stats.NewCollector()
	res, err := Verify(context.Background(), VerifyConfig{Dir: dir, Entries: entries, Stats: c})
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, 3, res.Verified)
	assert.Equal(t, int64(3), c.Snapshot().ChunksVerified)

	require.NoError(t, os.WriteFile(paths[1], []byte("BBB"), 0o644))
	require.NoError(t, os.Remove(paths[2]))

	res, err = Verify(context.Background(), VerifyConfig{Dir: dir, Entries: entries, Stats: c, Workers: 1})
	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.Equal(t, 1, res.Verified)
	require.Len(t, res.Failures, 2)
	assert.Equal(t, "f.002", res.Failures[0].Name)
	assert.ErrorIs(t, res.Failures[0].Err, ErrMismatch)
	assert.NotEmpty(t, res.Failures[0].Got)
	assert.Equal(t, "f.003", res.Failures[1].Name)
	assert.ErrorIs(t, res.Failures[1].Err, os.ErrNotExist)
	assert.Equal(t, int64(2), c.Snapshot().VerifyFailed)
}

func TestVerifyCancelled(t *testing.T) {
	dir := t.TempDir()
	paths := writeFiles(t, dir, map[string]string{"f.001": "a"})
	entries, err := Build(context.Background(), paths, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Verify(ctx, VerifyConfig{Dir: dir, Entries: entries})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVerifyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.WriteFile(path, []byte("payload"), 0o644))
	sum, err := HashFile(path)
	require.NoError(t, err)

	require.NoError(t, VerifyFile(path, sum))
	assert.ErrorIs(t, VerifyFile(path, strings.Repeat("0", 64)), ErrMismatch)
}

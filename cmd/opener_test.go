package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createEmptySQLiteFile writes a zero-length file, which SQLite accepts as
// a valid (empty) database when opened, even read-only.
func createEmptySQLiteFile(path string) error {
	return os.WriteFile(path, nil, 0o644)
}

func TestDefaultArchiveOpenerOpenArchiveARejectsLocalPath(t *testing.T) {
	opener := defaultArchiveOpener{}
	_, err := opener.OpenArchiveA("/local/path/tiles.bin")
	assert.Error(t, err)
}

func TestDefaultArchiveOpenerOpenArchiveAAcceptsHTTPURL(t *testing.T) {
	opener := defaultArchiveOpener{}
	reader, err := opener.OpenArchiveA("http://tiles.example.com/basemap")
	require.NoError(t, err)
	require.NotNil(t, reader)
	defer reader.Close()
}

func TestDefaultArchiveOpenerOpenArchiveBOpensSQLiteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tiles.mbtiles")

	// OpenArchiveB dispatches to archivesqlite.Open, which requires a
	// pre-existing file when opened read-only; a freshly-created empty
	// file satisfies the "exists" check even without a tiles table.
	require.NoError(t, createEmptySQLiteFile(path))

	opener := defaultArchiveOpener{}
	reader, err := opener.OpenArchiveB(path)
	require.NoError(t, err)
	defer reader.Close()
}

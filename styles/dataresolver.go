package styles

import (
	"os"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/ownmap/tileserver/archive"
)

// DataResolver resolves the {name} a style source's archiveA://{name} or
// archiveB://{name} URL names into an inputfile path and a filetype hint,
// per spec.md §4.1 step 1. Production deployments supply this from
// whatever configuration maps style-declared names to files on disk;
// tests and the CLI's default path use a simple map-backed resolver.
type DataResolver interface {
	Resolve(name string) (inputfile, filetype string, err errorsx.Error)
}

// ArchiveOpener opens a reader of the given kind against a resolved
// inputfile. Kept separate from DataResolver so callers can swap archive
// implementations without touching the name-to-path mapping.
type ArchiveOpener interface {
	OpenArchiveA(inputfile string) (archive.ArchiveAReader, errorsx.Error)
	OpenArchiveB(inputfile string) (archive.ArchiveBReader, errorsx.Error)
}

// MapDataResolver is the simplest DataResolver: a static name -> (path,
// filetype) table, suitable for config-file-driven deployments and tests.
type MapDataResolver map[string]ResolvedSource

// ResolvedSource is one entry of a MapDataResolver.
type ResolvedSource struct {
	Inputfile string
	Filetype  string
}

func (m MapDataResolver) Resolve(name string) (string, string, errorsx.Error) {
	entry, ok := m[name]
	if !ok {
		return "", "", errorsx.Errorf("no data resolver entry for source %q", name)
	}
	return entry.Inputfile, entry.Filetype, nil
}

// isRegularNonzeroFile implements the spec.md §4.1 step 2 validation: the
// inputfile must be a regular, nonzero-size file, unless it is itself an
// HTTP(S) URL (permitted for archive-A only, handled by the caller before
// reaching this check).
func isRegularNonzeroFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Size() > 0
}

func isHTTPURL(s string) bool {
	return len(s) > 7 && (s[:7] == "http://" || (len(s) > 8 && s[:8] == "https://"))
}

package main

import (
	"strings"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/ownmap/tileserver/archive"
	"github.com/ownmap/tileserver/archivehttp"
	"github.com/ownmap/tileserver/archivesqlite"
)

// defaultArchiveOpener is the ArchiveOpener this CLI wires by default:
// archive-B against the mbtiles-schema SQLite reader, archive-A against
// either the HTTP-templated reader (when the resolved inputfile is
// itself an http(s) URL, the one case spec.md §4.1 step 2 permits) or
// rejected otherwise, since a concrete sparse-indexed single-file reader
// is an external collaborator this module only describes the contract
// of (spec.md §1).
type defaultArchiveOpener struct{}

func (defaultArchiveOpener) OpenArchiveA(inputfile string) (archive.ArchiveAReader, errorsx.Error) {
	if strings.HasPrefix(inputfile, "http://") || strings.HasPrefix(inputfile, "https://") {
		return archivehttp.Open(inputfile)
	}
	return nil, errorsx.Errorf("archive-A inputfile %q is not an http(s) URL; a sparse-indexed reader must be supplied by the deployment (SPEC_FULL.md §1)", inputfile)
}

func (defaultArchiveOpener) OpenArchiveB(inputfile string) (archive.ArchiveBReader, errorsx.Error) {
	return archivesqlite.Open(inputfile)
}

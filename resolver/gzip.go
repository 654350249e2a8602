package resolver

import (
	"bytes"
	"compress/gzip"
	"io"
)

// gunzip decompresses an archive-B tile blob. Archive-B always stores
// .pbf tiles gzipped (spec.md §4.2); this is a one-shot
// decompress-then-discard path, so the standard library's compress/gzip
// is the idiomatic choice rather than a third-party gzip implementation
// (see DESIGN.md).
func gunzip(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

// Package archive defines the two tile-archive reader contracts the
// Resource Resolver dispatches to (spec.md §4.1, §6). This package only
// describes their shape; the concrete readers in this module are
// archivehttp (Archive-A) and archivesqlite (Archive-B), and any other
// implementation of the interfaces can be supplied. A tagged Source variant replaces a parallel source/source-type
// map, per Design Note 9.
package archive

import (
	"context"
	"errors"

	"github.com/jamesrr39/goutil/errorsx"
)

// Info is the metadata an archive reader publishes about itself, merged
// into a style's source object at registration (spec.md §4.1 step 3).
type Info struct {
	Bounds  [4]float64
	Center  [2]float64
	MinZoom int
	MaxZoom int
	Format  string
	Proj4   string
}

// Tile is a single archive tile fetch result.
type Tile struct {
	Data         []byte
	LastModified string // RFC1123 header value, if the archive carries one
}

// ArchiveAReader is the contract for the sparse-indexed single-file tile
// archive format (Archive-A in the Glossary): a header-per-tile index that
// can be queried synchronously, plus HTTP-backed inputfiles (spec.md
// §4.1 step 2 permits this for Archive-A only).
type ArchiveAReader interface {
	GetTile(ctx context.Context, z, x, y int) (*Tile, errorsx.Error)
	GetInfo(ctx context.Context) (*Info, errorsx.Error)
	Close() error
}

// ArchiveBReader is the contract for the SQL-backed tile archive format
// (Archive-B in the Glossary), delivering gzipped vector tiles via a
// callback-shaped GetTile (spec.md §6), matched here with a context-aware
// synchronous method — callers that need the worker-thread dispatch spec.md
// §4.1 step 2 describes run this off the calling goroutine themselves.
type ArchiveBReader interface {
	GetTile(ctx context.Context, z, x, y int, cb func(err error, data []byte, headers map[string]string))
	GetInfo(cb func(info *Info, err error))
	Close() error
}

// Kind tags which reader a Source wraps.
type Kind int

const (
	KindArchiveA Kind = iota
	KindArchiveB
)

func (k Kind) String() string {
	switch k {
	case KindArchiveA:
		return "archiveA"
	case KindArchiveB:
		return "archiveB"
	default:
		return "unknown"
	}
}

// Source is the tagged variant Source = ArchiveA(handle) | ArchiveB(handle)
// from Design Note 9, replacing a parallel map[name]Kind lookup.
type Source struct {
	Kind Kind
	A    ArchiveAReader
	B    ArchiveBReader
}

// NewArchiveASource wraps an Archive-A reader.
func NewArchiveASource(r ArchiveAReader) Source { return Source{Kind: KindArchiveA, A: r} }

// NewArchiveBSource wraps an Archive-B reader.
func NewArchiveBSource(r ArchiveBReader) Source { return Source{Kind: KindArchiveB, B: r} }

// GetTile dispatches to whichever reader this Source wraps, giving callers
// a single call site regardless of archive kind.
func (s Source) GetTile(ctx context.Context, z, x, y int) (*Tile, errorsx.Error) {
	switch s.Kind {
	case KindArchiveA:
		return s.A.GetTile(ctx, z, x, y)
	case KindArchiveB:
		var tile *Tile
		var fetchErr errorsx.Error
		done := make(chan struct{})
		s.B.GetTile(ctx, z, x, y, func(err error, data []byte, headers map[string]string) {
			defer close(done)
			if err != nil {
				fetchErr = errorsx.Wrap(err)
				return
			}
			tile = &Tile{Data: data, LastModified: headers["Last-Modified"]}
		})
		<-done
		return tile, fetchErr
	default:
		return nil, errorsx.Errorf("unknown archive source kind: %d", s.Kind)
	}
}

// GetInfo dispatches GetInfo to whichever reader this Source wraps.
func (s Source) GetInfo(ctx context.Context) (*Info, errorsx.Error) {
	switch s.Kind {
	case KindArchiveA:
		return s.A.GetInfo(ctx)
	case KindArchiveB:
		var info *Info
		var fetchErr errorsx.Error
		done := make(chan struct{})
		s.B.GetInfo(func(i *Info, err error) {
			defer close(done)
			if err != nil {
				fetchErr = errorsx.Wrap(err)
				return
			}
			info = i
		})
		<-done
		return info, fetchErr
	default:
		return nil, errorsx.Errorf("unknown archive source kind: %d", s.Kind)
	}
}

// Close closes whichever reader this Source wraps.
func (s Source) Close() error {
	switch s.Kind {
	case KindArchiveA:
		return s.A.Close()
	case KindArchiveB:
		return s.B.Close()
	default:
		return nil
	}
}

// ErrNotRegularFile is returned by DataResolver-adjacent registration code
// when an inputfile is not a regular, nonzero-size file (spec.md §4.1
// step 2), aborting registration per spec.md §7 FatalConfig.
var ErrNotRegularFile = errors.New("inputfile is not a regular, nonzero-size file")

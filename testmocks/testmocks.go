// Package testmocks provides minimal in-memory fakes for this module's
// out-of-scope external collaborators (spec.md §1): the two archive
// readers and the font-range assembler. Grounded on
// the teacher's own test doubles for its DAL/style-set contracts
// (ownmapdal_test.go-style struct literals implementing the real
// interface rather than a generated mock).
package testmocks

import (
	"context"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/ownmap/tileserver/archive"
)

// FakeArchiveA is an in-memory ArchiveAReader keyed by (z,x,y).
type FakeArchiveA struct {
	Tiles map[[3]int]*archive.Tile
	Info  *archive.Info
}

// NewFakeArchiveA returns an empty FakeArchiveA with a zoom [0,22] info
// default; callers add tiles directly via Tiles.
func NewFakeArchiveA() *FakeArchiveA {
	return &FakeArchiveA{
		Tiles: make(map[[3]int]*archive.Tile),
		Info:  &archive.Info{MinZoom: 0, MaxZoom: 22, Format: "png"},
	}
}

func (f *FakeArchiveA) GetTile(ctx context.Context, z, x, y int) (*archive.Tile, errorsx.Error) {
	tile, ok := f.Tiles[[3]int{z, x, y}]
	if !ok {
		return nil, nil
	}
	return tile, nil
}

func (f *FakeArchiveA) GetInfo(ctx context.Context) (*archive.Info, errorsx.Error) {
	return f.Info, nil
}

func (f *FakeArchiveA) Close() error { return nil }

// FakeArchiveB is an in-memory ArchiveBReader, exercising the
// callback-shaped contract the way a real SQL-backed reader would.
type FakeArchiveB struct {
	Tiles map[[3]int][]byte
	Info  *archive.Info
}

func NewFakeArchiveB() *FakeArchiveB {
	return &FakeArchiveB{
		Tiles: make(map[[3]int][]byte),
		Info:  &archive.Info{MinZoom: 0, MaxZoom: 22, Format: "pbf"},
	}
}

func (f *FakeArchiveB) GetTile(ctx context.Context, z, x, y int, cb func(err error, data []byte, headers map[string]string)) {
	data, ok := f.Tiles[[3]int{z, x, y}]
	if !ok {
		cb(nil, nil, nil)
		return
	}
	cb(nil, data, nil)
}

func (f *FakeArchiveB) GetInfo(cb func(info *archive.Info, err error)) {
	cb(f.Info, nil)
}

func (f *FakeArchiveB) Close() error { return nil }

// FakeFontAssembler returns fixed bytes for every fontstack/range pair,
// recording every call for assertions.
type FakeFontAssembler struct {
	Data  []byte
	Calls []FontAssembleCall
}

type FontAssembleCall struct {
	Fontstack      string
	CodepointRange string
	AllowedFonts   []string
}

func (f *FakeFontAssembler) Assemble(ctx context.Context, fontstack, codepointRange string, allowedFonts []string) ([]byte, error) {
	f.Calls = append(f.Calls, FontAssembleCall{fontstack, codepointRange, allowedFonts})
	return f.Data, nil
}

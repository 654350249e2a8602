// Package archivesqlite is a concrete Archive-B reader over the
// mbtiles-shaped schema the retrieved corpus's tile-cutting tool writes
// (zoom_level, tile_column, tile_row, tile_data), opened through
// mattn/go-sqlite3 (SPEC_FULL.md §4.10). Production deployments may supply
// any ArchiveBReader; this one exists so the CLI has a real, runnable
// default rather than requiring every operator to write their own.
package archivesqlite

import (
	"context"
	"database/sql"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/ownmap/tileserver/apperr"
	"github.com/ownmap/tileserver/archive"
)

// Reader is an ArchiveBReader backed by an mbtiles-schema SQLite file.
// TMS row numbering (tile_row counted from the bottom) is converted to
// the XYZ numbering the rest of this module uses on every read.
type Reader struct {
	db   *sql.DB
	path string

	infoOnce sync.Once
	info     *archive.Info
	infoErr  error
}

// Open opens path as a read-only mbtiles-schema SQLite database. The
// file must already exist and contain a `tiles` table; this does not
// create one (that's the cutting tool's job, not the server's).
func Open(path string) (*Reader, errorsx.Error) {
	// go-sqlite3 only honours mode=ro (which refuses to create a missing
	// file) when the DSN is a "file:" URI.
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro&_query_only=true")
	if err != nil {
		return nil, errorsx.Wrap(err, "path", path)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errorsx.Wrap(err, "path", path)
	}
	return &Reader{db: db, path: path}, nil
}

func (r *Reader) GetTile(ctx context.Context, z, x, y int, cb func(err error, data []byte, headers map[string]string)) {
	tmsRow := tmsRowFromXYZ(z, y)

	var data []byte
	row := r.db.QueryRowContext(ctx,
		"select tile_data from tiles where zoom_level = ? and tile_column = ? and tile_row = ?",
		z, x, tmsRow)

	switch err := row.Scan(&data); err {
	case nil:
		cb(nil, data, nil)
	case sql.ErrNoRows:
		cb(errorsx.Wrap(apperr.ErrUpstreamEmpty, "z", z, "x", x, "y", y), nil, nil)
	default:
		cb(errorsx.Wrap(apperr.ErrUpstreamError, "z", z, "x", x, "y", y, "cause", err), nil, nil)
	}
}

func (r *Reader) GetInfo(cb func(info *archive.Info, err error)) {
	r.infoOnce.Do(func() { r.info, r.infoErr = r.loadInfo() })
	cb(r.info, r.infoErr)
}

func (r *Reader) loadInfo() (*archive.Info, error) {
	info := &archive.Info{MinZoom: 0, MaxZoom: 22, Format: "pbf"}

	metaRows, err := r.db.Query("select name, value from metadata")
	if err == nil {
		defer metaRows.Close()
		meta := make(map[string]string)
		for metaRows.Next() {
			var name, value string
			if scanErr := metaRows.Scan(&name, &value); scanErr == nil {
				meta[name] = value
			}
		}
		applyMetadata(info, meta)
	}

	var minZ, maxZ sql.NullInt64
	err = r.db.QueryRow("select min(zoom_level), max(zoom_level) from tiles").Scan(&minZ, &maxZ)
	if err == nil && minZ.Valid && maxZ.Valid {
		info.MinZoom = int(minZ.Int64)
		info.MaxZoom = int(maxZ.Int64)
	}

	return info, nil
}

func (r *Reader) Close() error {
	return r.db.Close()
}

// tmsRowFromXYZ converts the XYZ row numbering this module uses
// everywhere else into mbtiles's TMS (bottom-up) numbering.
func tmsRowFromXYZ(z, y int) int {
	return (1 << uint(z)) - 1 - y
}

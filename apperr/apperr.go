// Package apperr names the small closed taxonomy of error causes from
// spec.md §7, so call sites can branch on errorsx.Cause(err) instead of
// string-matching messages.
package apperr

import "errors"

var (
	// ErrBadRequest marks invalid geographic inputs, sizes, or formats.
	ErrBadRequest = errors.New("bad request")
	// ErrNotFound marks an unknown style id or out-of-range tile.
	ErrNotFound = errors.New("not found")
	// ErrUpstreamEmpty marks an archive lookup that yielded no data.
	ErrUpstreamEmpty = errors.New("upstream empty")
	// ErrUpstreamError marks an archive read failure, HTTP non-2xx
	// response, or decompression failure.
	ErrUpstreamError = errors.New("upstream error")
	// ErrRenderError marks a renderer callback failure.
	ErrRenderError = errors.New("render error")
	// ErrFatalConfig marks a style registration with an unresolvable or
	// zero-byte archive file.
	ErrFatalConfig = errors.New("fatal config")
)

package webservices

import (
	"net/http"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/ownmap/tileserver/apperr"
)

// statusForError maps the apperr taxonomy to the exit codes spec.md §6
// names, falling back to 500 for anything unrecognised.
func statusForError(err error) int {
	switch errorsx.Cause(err) {
	case apperr.ErrBadRequest:
		return http.StatusBadRequest
	case apperr.ErrNotFound:
		return http.StatusNotFound
	case apperr.ErrUpstreamEmpty, apperr.ErrUpstreamError, apperr.ErrRenderError, apperr.ErrFatalConfig:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

package webservices

import (
	"errors"
	"net/http"
	"testing"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/ownmap/tileserver/apperr"
	"github.com/stretchr/testify/assert"
)

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"bad request", errorsx.Wrap(apperr.ErrBadRequest), http.StatusBadRequest},
		{"not found", errorsx.Wrap(apperr.ErrNotFound), http.StatusNotFound},
		{"upstream empty", errorsx.Wrap(apperr.ErrUpstreamEmpty), http.StatusInternalServerError},
		{"upstream error", errorsx.Wrap(apperr.ErrUpstreamError), http.StatusInternalServerError},
		{"render error", errorsx.Wrap(apperr.ErrRenderError), http.StatusInternalServerError},
		{"fatal config", errorsx.Wrap(apperr.ErrFatalConfig), http.StatusInternalServerError},
		{"unrecognised", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusForError(tt.err))
		})
	}
}

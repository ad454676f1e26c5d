package response

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"homestead/pkg/apperr"
)

func TestFailMapsKindToStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"bad request", apperr.New(apperr.BadRequest, "Missing slug parameter"), http.StatusBadRequest, `{"error":"Missing slug parameter"}`},
		{"not found", apperr.New(apperr.NotFound, "Field note not found"), http.StatusNotFound, `{"error":"Field note not found"}`},
		{"corrupt", apperr.Wrap(apperr.CorruptRecord, "Failed to read field note", errors.New("invalid character 'x'")), http.StatusInternalServerError, `{"error":"Failed to read field note"}`},
		{"store", apperr.Wrap(apperr.StoreUnavailable, "Failed to read recipe", errors.New("dial tcp: refused")), http.StatusInternalServerError, `{"error":"Failed to read recipe"}`},
		{"unknown", errors.New("secret detail"), http.StatusInternalServerError, `{"error":"Internal server error"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Fail(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}

func TestAllowMethods(t *testing.T) {
	rec := httptest.NewRecorder()
	ok := AllowMethods(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.MethodGet, http.MethodHead)
	assert.True(t, ok)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	ok = AllowMethods(rec, httptest.NewRequest(http.MethodDelete, "/", nil), http.MethodGet, http.MethodHead)
	assert.False(t, ok)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET, HEAD", rec.Header().Get("Allow"))
	assert.JSONEq(t, `{"error":"Method not allowed"}`, rec.Body.String())
}

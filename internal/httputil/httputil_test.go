package httputil_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pollex.nl/folio/internal/httputil"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	httputil.WriteJSON(rec, http.StatusTeapot, map[string]int{"n": 1})

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"n":1}`, rec.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	t.Run("valid", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))

		var p payload
		assert.True(t, httputil.DecodeJSON(rec, req, &p))
		assert.Equal(t, "x", p.Name)
	})

	t.Run("malformed body writes 400", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))

		var p payload
		assert.False(t, httputil.DecodeJSON(rec, req, &p))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown fields rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","extra":1}`))

		var p payload
		assert.False(t, httputil.DecodeJSON(rec, req, &p))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(w http.ResponseWriter)
		status int
	}{
		{"bad request", func(w http.ResponseWriter) { httputil.BadRequest(w, "nope") }, http.StatusBadRequest},
		{"not found", func(w http.ResponseWriter) { httputil.NotFound(w, "nope") }, http.StatusNotFound},
		{"internal", func(w http.ResponseWriter) { httputil.InternalError(w, "nope") }, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)

			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, `{"error":"nope"}`, rec.Body.String())
		})
	}
}

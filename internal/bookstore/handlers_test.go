package bookstore_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pollex.nl/folio/internal/bookstore"
	"pollex.nl/folio/internal/httputil"
)

func newRouter(t *testing.T) *mux.Router {
	t.Helper()

	store := newStore(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	return bookstore.NewHandler(store, log).Router()
}

func do(t *testing.T, router *mux.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))

	return v
}

func TestBookEndpoints(t *testing.T) {
	router := newRouter(t)

	author := decode[bookstore.Author](t, do(t, router, http.MethodPost, "/authors",
		map[string]string{"name": "Le Guin"}))

	t.Run("create", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/books", map[string]any{
			"isbn": "978-0441478125", "title": "The Left Hand of Darkness", "price": 9.99,
			"author_ids": []int64{author.ID},
		})
		require.Equal(t, http.StatusCreated, rec.Code)

		book := decode[bookstore.Book](t, rec)
		assert.Equal(t, "978-0441478125", book.ISBN)
		require.Len(t, book.Authors, 1)
		assert.Equal(t, "Le Guin", book.Authors[0].Name)
	})

	t.Run("create without isbn", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/books", map[string]any{"title": "No ISBN"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("create duplicate", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/books", map[string]any{
			"isbn": "978-0441478125", "title": "Again",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("list", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/books", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		books := decode[[]bookstore.Book](t, rec)
		require.Len(t, books, 1)
		require.Len(t, books[0].Authors, 1)
	})

	t.Run("get missing", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/books/unknown", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)

		body := decode[httputil.ErrorBody](t, rec)
		assert.Equal(t, "book not found", body.Error)
	})

	t.Run("update", func(t *testing.T) {
		rec := do(t, router, http.MethodPut, "/books/978-0441478125", map[string]any{
			"title": "The Left Hand of Darkness (reissue)", "price": 12.50,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		book := decode[bookstore.Book](t, rec)
		assert.Equal(t, 12.50, book.Price)
		assert.Empty(t, book.Authors)
	})

	t.Run("delete", func(t *testing.T) {
		rec := do(t, router, http.MethodDelete, "/books/978-0441478125", nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = do(t, router, http.MethodDelete, "/books/978-0441478125", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestAuthorEndpoints(t *testing.T) {
	router := newRouter(t)

	author := decode[bookstore.Author](t, do(t, router, http.MethodPost, "/authors",
		map[string]string{"name": "Gaiman"}))
	do(t, router, http.MethodPost, "/books", map[string]any{
		"isbn": "A", "title": "Book A", "author_ids": []int64{author.ID},
	})

	t.Run("list", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/authors", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[[]bookstore.Author](t, rec), 1)
	})

	t.Run("get with expand", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/authors/1?expand=books", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		got := decode[bookstore.Author](t, rec)
		require.Len(t, got.Books, 1)
		assert.Equal(t, "Book A", got.Books[0].Title)
	})

	t.Run("non-numeric id", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/authors/abc", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("create without name", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/authors", map[string]string{"name": " "})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestOrderEndpoints(t *testing.T) {
	router := newRouter(t)

	customer := decode[bookstore.Customer](t, do(t, router, http.MethodPost, "/customers",
		map[string]string{"name": "Ada", "email": "ada@example.com"}))
	do(t, router, http.MethodPost, "/books", map[string]any{"isbn": "A", "title": "Book A", "price": 10.0})
	do(t, router, http.MethodPost, "/books", map[string]any{"isbn": "B", "title": "Book B", "price": 12.0})

	t.Run("create", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/orders", map[string]any{
			"customer_id": customer.ID, "isbns": []string{"A", "A", "B"},
		})
		require.Equal(t, http.StatusCreated, rec.Code)

		order := decode[bookstore.Order](t, rec)
		assert.Equal(t, "Ada", order.Customer.Name)
		require.Len(t, order.Books, 3)
	})

	t.Run("create for unknown customer", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/orders", map[string]any{
			"customer_id": 999, "isbns": []string{"A"},
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("create without lines", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/orders", map[string]any{
			"customer_id": customer.ID, "isbns": []string{},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("list", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/orders", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		orders := decode[[]bookstore.Order](t, rec)
		require.Len(t, orders, 1)
		assert.Equal(t, customer.ID, orders[0].Customer.ID)
	})
}

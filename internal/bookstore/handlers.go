package bookstore

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"pollex.nl/folio/internal/apperror"
	"pollex.nl/folio/internal/httputil"
	"pollex.nl/folio/internal/middleware"
)

// Handler exposes the bookstore API over HTTP.
type Handler struct {
	store *Store
	log   *slog.Logger
}

func NewHandler(store *Store, log *slog.Logger) *Handler {
	return &Handler{store: store, log: log}
}

// Router wires all bookstore routes with logging and panic recovery.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(h.log))
	r.Use(apperror.Recover(h.log))

	r.Handle("/books", h.handle(h.listBooks)).Methods(http.MethodGet)
	r.Handle("/books", h.handle(h.createBook)).Methods(http.MethodPost)
	r.Handle("/books/{isbn}", h.handle(h.getBook)).Methods(http.MethodGet)
	r.Handle("/books/{isbn}", h.handle(h.updateBook)).Methods(http.MethodPut)
	r.Handle("/books/{isbn}", h.handle(h.deleteBook)).Methods(http.MethodDelete)

	r.Handle("/authors", h.handle(h.listAuthors)).Methods(http.MethodGet)
	r.Handle("/authors", h.handle(h.createAuthor)).Methods(http.MethodPost)
	r.Handle("/authors/{id}", h.handle(h.getAuthor)).Methods(http.MethodGet)

	r.Handle("/customers", h.handle(h.listCustomers)).Methods(http.MethodGet)
	r.Handle("/customers", h.handle(h.createCustomer)).Methods(http.MethodPost)

	r.Handle("/orders", h.handle(h.listOrders)).Methods(http.MethodGet)
	r.Handle("/orders", h.handle(h.createOrder)).Methods(http.MethodPost)
	r.Handle("/orders/{id}", h.handle(h.getOrder)).Methods(http.MethodGet)

	return r
}

func (h *Handler) handle(fn func(w http.ResponseWriter, r *http.Request) error) apperror.Handler {
	return apperror.Handler{Log: h.log, Fn: fn}
}

// =================
// Books
// =================

type bookInput struct {
	ISBN      string  `json:"isbn"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	AuthorIDs []int64 `json:"author_ids"`
}

func (h *Handler) listBooks(w http.ResponseWriter, r *http.Request) error {
	books, err := h.store.ListBooks(r.Context())
	if err != nil {
		return err
	}

	httputil.WriteJSON(w, http.StatusOK, books)
	return nil
}

func (h *Handler) getBook(w http.ResponseWriter, r *http.Request) error {
	book, err := h.store.GetBook(r.Context(), mux.Vars(r)["isbn"])
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.E(apperror.NotFound, "book not found")
	}
	if err != nil {
		return err
	}

	httputil.WriteJSON(w, http.StatusOK, book)
	return nil
}

func (h *Handler) createBook(w http.ResponseWriter, r *http.Request) error {
	var input bookInput
	if !httputil.DecodeJSON(w, r, &input) {
		return nil
	}

	input.ISBN = strings.TrimSpace(input.ISBN)
	if input.ISBN == "" || input.Title == "" {
		return apperror.E(apperror.Invalid, "isbn and title are required")
	}

	book := Book{ISBN: input.ISBN, Title: input.Title, Price: input.Price}
	err := h.store.CreateBook(r.Context(), book, input.AuthorIDs)
	if errors.Is(err, ErrDuplicate) {
		return apperror.E(apperror.Conflict, "book already exists")
	}
	if err != nil {
		return err
	}

	created, err := h.store.GetBook(r.Context(), input.ISBN)
	if err != nil {
		return err
	}

	httputil.WriteJSON(w, http.StatusCreated, created)
	return nil
}

func (h *Handler) updateBook(w http.ResponseWriter, r *http.Request) error {
	var input bookInput
	if !httputil.DecodeJSON(w, r, &input) {
		return nil
	}
	if input.Title == "" {
		return apperror.E(apperror.Invalid, "title is required")
	}

	isbn := mux.Vars(r)["isbn"]
	book := Book{ISBN: isbn, Title: input.Title, Price: input.Price}
	err := h.store.UpdateBook(r.Context(), book, input.AuthorIDs)
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.E(apperror.NotFound, "book not found")
	}
	if err != nil {
		return err
	}

	updated, err := h.store.GetBook(r.Context(), isbn)
	if err != nil {
		return err
	}

	httputil.WriteJSON(w, http.StatusOK, updated)
	return nil
}

func (h *Handler) deleteBook(w http.ResponseWriter, r *http.Request) error {
	err := h.store.DeleteBook(r.Context(), mux.Vars(r)["isbn"])
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.E(apperror.NotFound, "book not found")
	}
	if err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// =================
// Authors
// =================

func (h *Handler) listAuthors(w http.ResponseWriter, r *http.Request) error {
	authors, err := h.store.ListAuthors(r.Context())
	if err != nil {
		return err
	}

	httputil.WriteJSON(w, http.StatusOK, authors)
	return nil
}

func (h *Handler) getAuthor(w http.ResponseWriter, r *http.Request) error {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return apperror.E(apperror.Invalid, "author id must be numeric")
	}

	expandBooks := r.URL.Query().Get("expand") == "books"

	author, err := h.store.GetAuthor(r.Context(), id, expandBooks)
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.E(apperror.NotFound, "author not found")
	}
	if err != nil {
		return err
	}

	httputil.WriteJSON(w, http.StatusOK, author)
	return nil
}

func (h *Handler) createAuthor(w http.ResponseWriter, r *http.Request) error {
	var input struct {
		Name string `json:"name"`
	}
	if !httputil.DecodeJSON(w, r, &input) {
		return nil
	}
	if strings.TrimSpace(input.Name) == "" {
		return apperror.E(apperror.Invalid, "name is required")
	}

	author, err := h.store.CreateAuthor(r.Context(), input.Name)
	if err != nil {
		return err
	}

	httputil.WriteJSON(w, http.StatusCreated, author)
	return nil
}

// =================
// Customers
// =================

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) error {
	customers, err := h.store.ListCustomers(r.Context())
	if err != nil {
		return err
	}

	httputil.WriteJSON(w, http.StatusOK, customers)
	return nil
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) error {
	var input struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if !httputil.DecodeJSON(w, r, &input) {
		return nil
	}
	if input.Name == "" || input.Email == "" {
		return apperror.E(apperror.Invalid, "name and email are required")
	}

	customer, err := h.store.CreateCustomer(r.Context(), input.Name, input.Email)
	if err != nil {
		return err
	}

	httputil.WriteJSON(w, http.StatusCreated, customer)
	return nil
}

// =================
// Orders
// =================

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) error {
	orders, err := h.store.ListOrders(r.Context())
	if err != nil {
		return err
	}

	httputil.WriteJSON(w, http.StatusOK, orders)
	return nil
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) error {
	order, err := h.store.GetOrder(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.E(apperror.NotFound, "order not found")
	}
	if err != nil {
		return err
	}

	httputil.WriteJSON(w, http.StatusOK, order)
	return nil
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) error {
	var input struct {
		CustomerID int64    `json:"customer_id"`
		ISBNs      []string `json:"isbns"`
	}
	if !httputil.DecodeJSON(w, r, &input) {
		return nil
	}
	if input.CustomerID == 0 || len(input.ISBNs) == 0 {
		return apperror.E(apperror.Invalid, "customer_id and at least one isbn are required")
	}

	order, err := h.store.CreateOrder(r.Context(), input.CustomerID, input.ISBNs)
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.E(apperror.NotFound, "customer not found")
	}
	if err != nil {
		return err
	}

	httputil.WriteJSON(w, http.StatusCreated, order)
	return nil
}

// Package bookstore implements the CRUD bookstore snippet: a small HTTP API
// over SQLite whose multi-row reads reconstruct nested entities from joined
// rows.
package bookstore

import "time"

// Book is keyed by its ISBN, the natural key.
type Book struct {
	ISBN    string   `json:"isbn"`
	Title   string   `json:"title"`
	Price   float64  `json:"price"`
	Authors []Author `json:"authors,omitempty"`
}

type Author struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Books []Book `json:"books,omitempty"`
}

type Customer struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Order owns one Customer and a collection of Books with one entry per copy
// ordered; quantity is represented by repetition, not a count field.
type Order struct {
	ID       string    `json:"id"`
	PlacedAt time.Time `json:"placed_at"`
	Customer Customer  `json:"customer"`
	Books    []Book    `json:"books"`
}

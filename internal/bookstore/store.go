package bookstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"pollex.nl/folio"
)

// ErrDuplicate is returned when an insert collides with an existing row.
var ErrDuplicate = errors.New("already exists")

// Store persists the bookstore entities in SQLite. Tables are created ad hoc
// on open; there is no migration story.
type Store struct {
	db *sql.DB
	sq squirrel.StatementBuilderType
}

const schema = `
	create table if not exists books (
		isbn text primary key,
		title text not null,
		price real not null
	);
	create table if not exists authors (
		id integer primary key autoincrement,
		name text not null
	);
	create table if not exists book_authors (
		book_isbn text not null,
		author_id integer not null
	);
	create table if not exists customers (
		id integer primary key autoincrement,
		name text not null,
		email text not null
	);
	create table if not exists orders (
		id text primary key,
		placed_at timestamp not null,
		customer_id integer not null
	);
	create table if not exists order_books (
		order_id text not null,
		book_isbn text not null
	);
	`

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &Store{db: db, sq: squirrel.StatementBuilder.RunWith(db)}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// =================
// Books
// =================

// bookRow is one joined books⟕authors row: book fields first, then the
// author segment, nullable because of the outer join.
type bookRow struct {
	ISBN       string
	Title      string
	Price      float64
	AuthorID   sql.NullInt64
	AuthorName sql.NullString
}

func scanBookRow(r *bookRow) (folio.Ptrs, folio.Action) {
	return folio.Ptrs{&r.ISBN, &r.Title, &r.Price, &r.AuthorID, &r.AuthorName}, nil
}

func (s *Store) booksQuery() folio.Q {
	return s.sq.Select("books.isbn", "books.title", "books.price", "authors.id", "authors.name").
		From("books").
		LeftJoin("book_authors ON book_authors.book_isbn = books.isbn").
		LeftJoin("authors ON authors.id = book_authors.author_id").
		OrderBy("books.isbn", "book_authors.rowid")
}

func (s *Store) collectBooks(ctx context.Context, q folio.Q) ([]Book, error) {
	return folio.CollectGrouped(ctx, q, scanBookRow,
		func(r bookRow) string { return r.ISBN },
		func(r bookRow) Book { return Book{ISBN: r.ISBN, Title: r.Title, Price: r.Price} },
		func(book *Book, r bookRow) {
			if !r.AuthorID.Valid {
				return
			}
			book.Authors = append(book.Authors, Author{ID: r.AuthorID.Int64, Name: r.AuthorName.String})
		},
	)
}

// ListBooks returns every book with its authors nested. A book without
// authors still appears, with an empty collection.
func (s *Store) ListBooks(ctx context.Context) ([]Book, error) {
	return s.collectBooks(ctx, s.booksQuery())
}

// GetBook returns one book with its authors, or sql.ErrNoRows.
func (s *Store) GetBook(ctx context.Context, isbn string) (*Book, error) {
	books, err := s.collectBooks(ctx, s.booksQuery().Where(squirrel.Eq{"books.isbn": isbn}))
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, sql.ErrNoRows
	}

	return &books[0], nil
}

func (s *Store) CreateBook(ctx context.Context, book Book, authorIDs []int64) error {
	_, err := s.sq.Insert("books").
		Columns("isbn", "title", "price").
		Values(book.ISBN, book.Title, book.Price).
		ExecContext(ctx)
	if err != nil {
		return translateConstraint(err)
	}

	return s.linkAuthors(ctx, book.ISBN, authorIDs)
}

func (s *Store) UpdateBook(ctx context.Context, book Book, authorIDs []int64) error {
	res, err := s.sq.Update("books").
		Set("title", book.Title).
		Set("price", book.Price).
		Where(squirrel.Eq{"isbn": book.ISBN}).
		ExecContext(ctx)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err != nil {
		return err
	} else if affected == 0 {
		return sql.ErrNoRows
	}

	_, err = s.sq.Delete("book_authors").
		Where(squirrel.Eq{"book_isbn": book.ISBN}).
		ExecContext(ctx)
	if err != nil {
		return err
	}

	return s.linkAuthors(ctx, book.ISBN, authorIDs)
}

func (s *Store) DeleteBook(ctx context.Context, isbn string) error {
	res, err := s.sq.Delete("books").Where(squirrel.Eq{"isbn": isbn}).ExecContext(ctx)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err != nil {
		return err
	} else if affected == 0 {
		return sql.ErrNoRows
	}

	_, err = s.sq.Delete("book_authors").Where(squirrel.Eq{"book_isbn": isbn}).ExecContext(ctx)

	return err
}

func (s *Store) linkAuthors(ctx context.Context, isbn string, authorIDs []int64) error {
	if len(authorIDs) == 0 {
		return nil
	}

	insert := s.sq.Insert("book_authors").Columns("book_isbn", "author_id")
	for _, id := range authorIDs {
		insert = insert.Values(isbn, id)
	}
	_, err := insert.ExecContext(ctx)

	return err
}

// =================
// Authors
// =================

func (s *Store) ListAuthors(ctx context.Context) ([]Author, error) {
	return authorSchema.Query("id", "name").
		Modify(func(q folio.Q, table string) folio.Q { return q.OrderBy(folio.TableCol(table, "id")) }).
		Collect(ctx, s.db)
}

// GetAuthor returns one author, with their books resolved when expandBooks is
// set.
func (s *Store) GetAuthor(ctx context.Context, id int64, expandBooks bool) (*Author, error) {
	fields := []string{"id", "name"}
	if expandBooks {
		fields = append(fields, "books")
	}

	return authorSchema.Query(fields...).
		Modify(folio.Where("authors.id = ?", id)).
		CollectOne(ctx, s.db)
}

func (s *Store) CreateAuthor(ctx context.Context, name string) (*Author, error) {
	res, err := s.sq.Insert("authors").Columns("name").Values(name).ExecContext(ctx)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &Author{ID: id, Name: name}, nil
}

// =================
// Customers
// =================

func (s *Store) ListCustomers(ctx context.Context) ([]Customer, error) {
	return customerSchema.Query().
		Modify(func(q folio.Q, table string) folio.Q { return q.OrderBy(folio.TableCol(table, "id")) }).
		Collect(ctx, s.db)
}

func (s *Store) CreateCustomer(ctx context.Context, name, email string) (*Customer, error) {
	res, err := s.sq.Insert("customers").
		Columns("name", "email").
		Values(name, email).
		ExecContext(ctx)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &Customer{ID: id, Name: name, Email: email}, nil
}

func (s *Store) getCustomer(ctx context.Context, id int64) (*Customer, error) {
	return customerSchema.Query().
		Modify(folio.Where("customers.id = ?", id)).
		CollectOne(ctx, s.db)
}

// =================
// Orders
// =================

// orderRow is one joined orders–customers–books row, three segments in fixed
// order.
type orderRow struct {
	ID            string
	PlacedAt      time.Time
	CustomerID    int64
	CustomerName  string
	CustomerEmail string
	ISBN          string
	Title         string
	Price         float64
}

func scanOrderRow(r *orderRow) (folio.Ptrs, folio.Action) {
	return folio.Ptrs{
		&r.ID, &r.PlacedAt,
		&r.CustomerID, &r.CustomerName, &r.CustomerEmail,
		&r.ISBN, &r.Title, &r.Price,
	}, nil
}

func (s *Store) ordersQuery() folio.Q {
	return s.sq.Select(
		"orders.id", "orders.placed_at",
		"customers.id", "customers.name", "customers.email",
		"books.isbn", "books.title", "books.price",
	).
		From("orders").
		Join("customers ON customers.id = orders.customer_id").
		Join("order_books ON order_books.order_id = orders.id").
		Join("books ON books.isbn = order_books.book_isbn").
		OrderBy("orders.placed_at", "orders.id", "order_books.rowid")
}

func (s *Store) collectOrders(ctx context.Context, q folio.Q) ([]Order, error) {
	return folio.CollectGrouped(ctx, q, scanOrderRow,
		func(r orderRow) string { return r.ID },
		func(r orderRow) Order {
			return Order{
				ID:       r.ID,
				PlacedAt: r.PlacedAt,
				Customer: Customer{ID: r.CustomerID, Name: r.CustomerName, Email: r.CustomerEmail},
			}
		},
		func(order *Order, r orderRow) {
			// Inner join: every row carries a line. Duplicate lines are
			// intentional, one per copy ordered.
			order.Books = append(order.Books, Book{ISBN: r.ISBN, Title: r.Title, Price: r.Price})
		},
	)
}

// ListOrders returns every order with its customer and book lines nested.
func (s *Store) ListOrders(ctx context.Context) ([]Order, error) {
	return s.collectOrders(ctx, s.ordersQuery())
}

// GetOrder returns one order, or sql.ErrNoRows.
func (s *Store) GetOrder(ctx context.Context, id string) (*Order, error) {
	orders, err := s.collectOrders(ctx, s.ordersQuery().Where(squirrel.Eq{"orders.id": id}))
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, sql.ErrNoRows
	}

	return &orders[0], nil
}

// CreateOrder records an order for the customer with one line per entry in
// isbns. The books must exist; lines are not validated against stock.
func (s *Store) CreateOrder(ctx context.Context, customerID int64, isbns []string) (*Order, error) {
	if _, err := s.getCustomer(ctx, customerID); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	placedAt := time.Now().UTC()

	_, err := s.sq.Insert("orders").
		Columns("id", "placed_at", "customer_id").
		Values(id, placedAt, customerID).
		ExecContext(ctx)
	if err != nil {
		return nil, err
	}

	lines := s.sq.Insert("order_books").Columns("order_id", "book_isbn")
	for _, isbn := range isbns {
		lines = lines.Values(id, isbn)
	}
	if _, err := lines.ExecContext(ctx); err != nil {
		return nil, err
	}

	return s.GetOrder(ctx, id)
}

func translateConstraint(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}

	return err
}

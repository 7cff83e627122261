package bookstore

import (
	"github.com/samber/lo"
	"pollex.nl/folio"
)

var (
	authorSchema = folio.NewSchema[Author]("authors").
		Column("id", func(t *Author) any { return &t.ID }).
		Column("name", func(t *Author) any { return &t.Name })

	customerSchema = folio.NewSchema[Customer]("customers").
		Column("id", func(t *Customer) any { return &t.ID }).
		Column("name", func(t *Customer) any { return &t.Name }).
		Column("email", func(t *Customer) any { return &t.Email })

	// linkedBookSchema projects books through the book_authors link table so a
	// batched relation query can bind books back to their authors.
	linkedBookSchema = folio.NewSchema[linkedBook]("book_authors").
		Modify(func(q folio.Q, table string) folio.Q {
			return q.Join("books ON books.isbn = book_authors.book_isbn")
		}).
		Column("author_id", func(t *linkedBook) any { return &t.AuthorID }).
		Field("isbn", col("books", "isbn"), folio.Ptr(func(t *linkedBook) any { return &t.ISBN })).
		Field("title", col("books", "title"), folio.Ptr(func(t *linkedBook) any { return &t.Title })).
		Field("price", col("books", "price"), folio.Ptr(func(t *linkedBook) any { return &t.Price }))
)

// linkedBook is one book row carrying the author it is linked to.
type linkedBook struct {
	AuthorID int64
	Book
}

func init() {
	authorSchema.Relation("books",
		folio.HasMany(linkedBookSchema,
			func(author Author, link linkedBook) bool { return link.AuthorID == author.ID },
			func(author *Author, links []linkedBook) {
				author.Books = lo.Map(links, func(link linkedBook, _ int) Book { return link.Book })
			},
			folio.WhereIn("author_id", func(author Author) int64 { return author.ID }),
			folio.DependsOn("id", "books.author_id"),
		),
	)
}

// col selects a column from a fixed table, ignoring the schema's own alias.
func col(table, name string) folio.QueryMod {
	return func(q folio.Q, _ string) folio.Q {
		return q.Column(folio.TableCol(table, name))
	}
}

package folio_test

import (
	"context"
	"database/sql"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pollex.nl/folio"
)

type bookAuthorRow struct {
	ISBN       string
	Title      string
	AuthorName string
}

type groupedBook struct {
	ISBN    string
	Title   string
	Authors []string
}

func groupBooks(rows []bookAuthorRow) []groupedBook {
	return folio.Group(
		slices.Values(rows),
		func(r bookAuthorRow) string { return r.ISBN },
		func(r bookAuthorRow) groupedBook { return groupedBook{ISBN: r.ISBN, Title: r.Title} },
		func(b *groupedBook, r bookAuthorRow) {
			if r.AuthorName == "" {
				return
			}
			b.Authors = append(b.Authors, r.AuthorName)
		},
	)
}

func TestGroupDedupesParents(t *testing.T) {
	rows := []bookAuthorRow{
		{"A", "Book A", "X"},
		{"A", "Book A", "Y"},
		{"B", "Book B", "Z"},
	}

	books := groupBooks(rows)

	require.Len(t, books, 2)
	assert.Equal(t, groupedBook{"A", "Book A", []string{"X", "Y"}}, books[0])
	assert.Equal(t, groupedBook{"B", "Book B", []string{"Z"}}, books[1])
}

func TestGroupKeepsFirstSeenParentOrder(t *testing.T) {
	rows := []bookAuthorRow{
		{"B", "Book B", "Z"},
		{"A", "Book A", "X"},
		{"B", "Book B", "W"},
	}

	books := groupBooks(rows)

	require.Len(t, books, 2)
	assert.Equal(t, "B", books[0].ISBN)
	assert.Equal(t, "A", books[1].ISBN)
	assert.Equal(t, []string{"Z", "W"}, books[0].Authors)
}

func TestGroupDoesNotDedupeChildren(t *testing.T) {
	// A repeated identical row stands for another copy of the same pairing.
	rows := []bookAuthorRow{
		{"A", "Book A", "X"},
		{"A", "Book A", "X"},
	}

	books := groupBooks(rows)

	require.Len(t, books, 1)
	assert.Equal(t, []string{"X", "X"}, books[0].Authors)
}

func TestGroupEmptyInput(t *testing.T) {
	books := groupBooks(nil)
	assert.Empty(t, books)
}

func TestGroupOuterJoinRowContributesOnlyParent(t *testing.T) {
	rows := []bookAuthorRow{
		{"A", "Book A", ""},
		{"B", "Book B", "Z"},
	}

	books := groupBooks(rows)

	require.Len(t, books, 2)
	assert.Empty(t, books[0].Authors)
	assert.Equal(t, []string{"Z"}, books[1].Authors)
}

func TestGroupIdempotent(t *testing.T) {
	rows := []bookAuthorRow{
		{"A", "Book A", "X"},
		{"A", "Book A", "Y"},
		{"B", "Book B", "Z"},
	}

	first := groupBooks(rows)
	second := groupBooks(rows)

	assert.Equal(t, first, second)
}

func TestGroupThreeLevels(t *testing.T) {
	type orderRow struct {
		OrderID  uint64
		Customer string
		Book     string
	}
	type groupedOrder struct {
		ID       uint64
		Customer string
		Books    []string
	}

	rows := []orderRow{
		{1, "C1", "A"},
		{1, "C1", "B"},
	}

	orders := folio.Group(
		slices.Values(rows),
		func(r orderRow) uint64 { return r.OrderID },
		func(r orderRow) groupedOrder { return groupedOrder{ID: r.OrderID, Customer: r.Customer} },
		func(o *groupedOrder, r orderRow) { o.Books = append(o.Books, r.Book) },
	)

	require.Len(t, orders, 1)
	assert.Equal(t, groupedOrder{1, "C1", []string{"A", "B"}}, orders[0])
}

//nolint:errcheck
func TestCollectGroupedOverJoin(t *testing.T) {
	// Arrange
	_, sq := setupDB(t)
	seedCatalog(t, sq)
	// An album with no tracks, reachable only through the outer join.
	sq.Insert("albums").Values(5, "Unreleased", 1).Exec()

	type albumTrackRow struct {
		AlbumID    uint64
		Title      string
		TrackTitle sql.NullString
	}

	q := sq.Select("albums.id", "albums.title", "tracks.title").
		From("albums").
		LeftJoin("tracks ON tracks.album_id = albums.id").
		OrderBy("albums.id", "tracks.id")

	albums, err := folio.CollectGrouped(
		context.Background(),
		q,
		func(r *albumTrackRow) (folio.Ptrs, folio.Action) {
			return folio.Ptrs{&r.AlbumID, &r.Title, &r.TrackTitle}, nil
		},
		func(r albumTrackRow) uint64 { return r.AlbumID },
		func(r albumTrackRow) Album { return Album{ID: r.AlbumID, Title: r.Title} },
		func(album *Album, r albumTrackRow) {
			if !r.TrackTitle.Valid {
				return
			}
			album.Tracks = append(album.Tracks, Track{Title: r.TrackTitle.String, AlbumID: r.AlbumID})
		},
	)
	require.NoError(t, err)

	require.Len(t, albums, 5)
	assert.Equal(t, "Little Blue", albums[0].Title)
	require.Len(t, albums[0].Tracks, 1)
	assert.Equal(t, "Feeling Good", albums[0].Tracks[0].Title)

	last := albums[4]
	assert.Equal(t, "Unreleased", last.Title)
	assert.Empty(t, last.Tracks)
}

package folio_test

import (
	"database/sql"
	"testing"

	"github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

type Artist struct {
	ID     uint64
	Name   string
	Genres []string
	Albums []Album
}

type Album struct {
	ID       uint64
	Title    string
	ArtistID uint64
	Tracks   []Track
	Artist   *Artist
}

type Track struct {
	ID      uint64
	Title   string
	AlbumID uint64
}

func setupDB(t testing.TB) (*sql.DB, squirrel.StatementBuilderType) {
	db, err := sql.Open("sqlite3", "file::memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(migrate)
	require.NoError(t, err)

	sq := squirrel.StatementBuilder.RunWith(db)

	return db, sq
}

const migrate = `
	create table artists (
		id integer not null,
		name text not null,
		genres text not null
	);
	create table albums (
		id integer not null,
		title text not null,
		artist_id integer
	);
	create table tracks (
		id integer not null,
		title text not null,
		album_id integer
	);
	`

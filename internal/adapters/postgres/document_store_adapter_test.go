package postgres

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"room-listing-service/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	body     []byte
	revision int64
	err      error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*[]byte) = r.body
	*dest[1].(*int64) = r.revision
	return nil
}

// fakeDB имитирует одну строку room_documents
type fakeDB struct {
	body     []byte
	revision int64
	// bumpOnce - конкурентная запись между SELECT и UPDATE
	bumpOnce bool
	execs    int
}

func (db *fakeDB) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	if db.revision == 0 {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{body: db.body, revision: db.revision}
}

func (db *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	db.execs++
	if db.bumpOnce {
		db.bumpOnce = false
		db.revision++
		return pgconn.NewCommandTag("UPDATE 0"), nil
	}
	switch {
	case strings.Contains(sql, "INSERT"):
		if db.revision != 0 {
			return pgconn.NewCommandTag("INSERT 0 0"), nil
		}
		db.body, db.revision = args[1].([]byte), 1
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	case strings.Contains(sql, "UPDATE"):
		if args[2].(int64) != db.revision {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		}
		db.body = args[0].([]byte)
		db.revision++
		return pgconn.NewCommandTag("UPDATE 1"), nil
	}
	return pgconn.NewCommandTag(""), nil
}

func TestPostgresDocumentStore_EmptyThenInsert(t *testing.T) {
	db := &fakeDB{}
	store := NewPostgresDocumentStore(db, "")
	ctx := context.Background()

	doc, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc.Rooms)

	require.NoError(t, store.Update(ctx, func(doc *domain.ListingsDocument) error {
		doc.Rooms = append(doc.Rooms, domain.Listing{ID: domain.NewListingID(1), Title: "a"})
		return nil
	}))
	assert.Equal(t, int64(1), db.revision)

	var stored domain.ListingsDocument
	require.NoError(t, json.Unmarshal(db.body, &stored))
	require.Len(t, stored.Rooms, 1)
}

func TestPostgresDocumentStore_RetriesOnConcurrentWrite(t *testing.T) {
	db := &fakeDB{body: []byte(`{"rooms":[{"id":1,"title":"a"}]}`), revision: 3, bumpOnce: true}
	store := NewPostgresDocumentStore(db, "rooms")

	calls := 0
	err := store.Update(context.Background(), func(doc *domain.ListingsDocument) error {
		calls++
		doc.Rooms = append(doc.Rooms, domain.Listing{ID: domain.NewListingID(domain.NextListingID(doc.Rooms))})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, int64(5), db.revision)

	doc, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, doc.Rooms, 2)
}

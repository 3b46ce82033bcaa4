package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"room-listing-service/internal/contextkeys"
	"room-listing-service/internal/core/domain"
	"room-listing-service/internal/core/port"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	defaultDocumentName = "rooms"
	maxUpdateAttempts   = 5
)

// querier - часть *pgxpool.Pool, которая нужна адаптеру
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresDocumentStore хранит документ объявлений в одной jsonb-строке.
// Запись - оптимистичная: UPDATE проходит, только если revision не изменилась.
// Внутри процесса записи дополнительно сериализуются mutex-ом.
type PostgresDocumentStore struct {
	db   querier
	name string
	mu   sync.Mutex
}

func NewPostgresDocumentStore(db querier, name string) *PostgresDocumentStore {
	if name == "" {
		name = defaultDocumentName
	}
	return &PostgresDocumentStore{db: db, name: name}
}

// EnsureSchema создаёт таблицу, если её ещё нет
func (s *PostgresDocumentStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS room_documents (
			name       TEXT PRIMARY KEY,
			body       JSONB NOT NULL,
			revision   BIGINT NOT NULL DEFAULT 1,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("failed to ensure room_documents table: %w", err)
	}
	return nil
}

func (s *PostgresDocumentStore) Load(ctx context.Context) (*domain.ListingsDocument, error) {
	doc, _, err := s.read(ctx)
	return doc, err
}

func (s *PostgresDocumentStore) Update(ctx context.Context, mutate func(doc *domain.ListingsDocument) error) error {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "PostgresDocumentStore",
		"document":  s.name,
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		doc, revision, err := s.read(ctx)
		if err != nil {
			return err
		}
		if err := mutate(doc); err != nil {
			return err
		}
		body, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to encode rooms document: %w", err)
		}

		var tag pgconn.CommandTag
		if revision == 0 {
			tag, err = s.db.Exec(ctx,
				`INSERT INTO room_documents (name, body) VALUES ($1, $2)
				 ON CONFLICT (name) DO NOTHING`,
				s.name, body)
		} else {
			tag, err = s.db.Exec(ctx,
				`UPDATE room_documents SET body = $1, revision = revision + 1, updated_at = now()
				 WHERE name = $2 AND revision = $3`,
				body, s.name, revision)
		}
		if err != nil {
			return fmt.Errorf("failed to write rooms document: %w", err)
		}
		if tag.RowsAffected() == 1 {
			logger.Debug("Rooms document written", port.Fields{"rooms": len(doc.Rooms), "revision": revision + 1})
			return nil
		}
		logger.Warn("Rooms document changed concurrently, retrying", port.Fields{"attempt": attempt})
	}
	return fmt.Errorf("failed to write rooms document after %d attempts: concurrent modification", maxUpdateAttempts)
}

// read возвращает revision = 0, если строки ещё нет
func (s *PostgresDocumentStore) read(ctx context.Context) (*domain.ListingsDocument, int64, error) {
	var (
		body     []byte
		revision int64
	)
	err := s.db.QueryRow(ctx,
		`SELECT body, revision FROM room_documents WHERE name = $1`, s.name,
	).Scan(&body, &revision)
	if errors.Is(err, pgx.ErrNoRows) {
		return &domain.ListingsDocument{Rooms: []domain.Listing{}}, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read rooms document: %w", err)
	}

	doc := &domain.ListingsDocument{}
	if err := json.Unmarshal(body, doc); err != nil {
		return nil, 0, fmt.Errorf("failed to decode rooms document: %w", err)
	}
	if doc.Rooms == nil {
		doc.Rooms = []domain.Listing{}
	}
	return doc, revision, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/victornm/asking/internal/domain"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS score_records (
    record_id   TEXT PRIMARY KEY,
    collection  TEXT    NOT NULL,
    user_name   TEXT    NOT NULL,
    points      INTEGER NOT NULL CHECK (points >= 0),
    create_time INTEGER NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS score_records_collection_idx ON score_records (collection, create_time)`,
}

// ScoreStore keeps score records in a local SQLite file, for single-node or
// offline deployments.
type ScoreStore struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*ScoreStore, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// SQLite serializes writers anyway.
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	return &ScoreStore{db: db, now: time.Now}, nil
}

func (s *ScoreStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ScoreStore) Close() error {
	return s.db.Close()
}

func (s *ScoreStore) Append(ctx context.Context, collection string, r domain.ScoreRecord) error {
	const stmt = `
INSERT INTO score_records (record_id, collection, user_name, points, create_time)
VALUES (?, ?, ?, ?, ?);`

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate record ID: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, stmt, id.String(), collection, r.UserName, r.Points, s.now().UnixNano()); err != nil {
		return fmt.Errorf("insert score record: %w", err)
	}
	return nil
}

func (s *ScoreStore) FetchAll(ctx context.Context, collection string) ([]domain.ScoreRecord, error) {
	const stmt = `
SELECT user_name, points
FROM score_records
WHERE collection = ?
ORDER BY create_time, record_id;`

	rows, err := s.db.QueryContext(ctx, stmt, collection)
	if err != nil {
		return nil, fmt.Errorf("query score records: %w", err)
	}
	defer rows.Close()

	var records []domain.ScoreRecord
	for rows.Next() {
		var sr domain.ScoreRecord
		if err := rows.Scan(&sr.UserName, &sr.Points); err != nil {
			return nil, fmt.Errorf("scan score record: %w", err)
		}
		records = append(records, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate score records: %w", err)
	}

	return records, nil
}

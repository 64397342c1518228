package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/victornm/asking/internal/domain"
)

// ScoreStore keeps score records in the score_records table. See migrations.
type ScoreStore struct {
	db  *pgxpool.Pool
	now func() time.Time
}

func NewScoreStore(db *pgxpool.Pool) *ScoreStore {
	return &ScoreStore{
		db:  db,
		now: time.Now,
	}
}

func (s *ScoreStore) Append(ctx context.Context, collection string, r domain.ScoreRecord) error {
	const stmt = `
INSERT INTO score_records (record_id, collection, user_name, points, create_time)
VALUES ($1, $2, $3, $4, $5);`

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate record ID: %w", err)
	}

	if _, err := s.db.Exec(ctx, stmt, id, collection, r.UserName, r.Points, s.now()); err != nil {
		return fmt.Errorf("insert score record: %w", err)
	}
	return nil
}

func (s *ScoreStore) FetchAll(ctx context.Context, collection string) ([]domain.ScoreRecord, error) {
	const stmt = `
SELECT user_name, points
FROM score_records
WHERE collection = $1
ORDER BY create_time, record_id;`

	rows, err := s.db.Query(ctx, stmt, collection)
	if err != nil {
		return nil, fmt.Errorf("query score records: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.ScoreRecord, error) {
		var sr domain.ScoreRecord
		if err := r.Scan(&sr.UserName, &sr.Points); err != nil {
			return domain.ScoreRecord{}, err
		}
		return sr, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan score records: %w", err)
	}

	return records, nil
}

package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
)

//go:embed score_records.sql
var createScoreRecordsSQL string

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, createScoreRecordsSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS score_records`)
			return err
		},
	)
}

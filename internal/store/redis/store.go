package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/victornm/asking/internal/domain"
)

// UnknownUser names records persisted without a user name.
const UnknownUser = "Desconocido"

// ScoreStore keeps each collection as a Redis list of JSON documents:
//
//	RPUSH {prefix}:{collection} {"id":...,"userName":...,"points":...,"createTime":...}
type ScoreStore struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewScoreStore(r redis.UniversalClient, prefix string) *ScoreStore {
	return &ScoreStore{
		redis:  r,
		prefix: prefix,
		now:    time.Now,
	}
}

type record struct {
	ID         string    `json:"id"`
	UserName   *string   `json:"userName"`
	Points     *int      `json:"points"`
	CreateTime time.Time `json:"createTime"`
}

func (s *ScoreStore) Append(ctx context.Context, collection string, r domain.ScoreRecord) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate record ID: %w", err)
	}

	b, err := json.Marshal(record{
		ID:         id.String(),
		UserName:   &r.UserName,
		Points:     &r.Points,
		CreateTime: s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	if err := s.redis.RPush(ctx, s.key(collection), b).Err(); err != nil {
		return fmt.Errorf("rpush: %w", err)
	}
	return nil
}

// FetchAll returns the records in insertion order. Fields missing from a
// stored document fall back to UnknownUser and 0 points; documents that are
// not JSON at all are skipped.
func (s *ScoreStore) FetchAll(ctx context.Context, collection string) ([]domain.ScoreRecord, error) {
	raw, err := s.redis.LRange(ctx, s.key(collection), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange: %w", err)
	}

	out := make([]domain.ScoreRecord, 0, len(raw))
	for _, v := range raw {
		var rec record
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			slog.WarnContext(ctx, "redis: skip malformed score record", "collection", collection, "error", err)
			continue
		}

		sr := domain.ScoreRecord{UserName: UnknownUser}
		if rec.UserName != nil {
			sr.UserName = *rec.UserName
		}
		if rec.Points != nil {
			sr.Points = *rec.Points
		}
		out = append(out, sr)
	}

	return out, nil
}

func (s *ScoreStore) key(collection string) string {
	return fmt.Sprintf("%s:%s", s.prefix, collection)
}

// ProfileStore keeps display name overrides in a single hash.
type ProfileStore struct {
	redis  redis.UniversalClient
	prefix string
}

func NewProfileStore(r redis.UniversalClient, prefix string) *ProfileStore {
	return &ProfileStore{
		redis:  r,
		prefix: prefix,
	}
}

func (s *ProfileStore) DisplayName(ctx context.Context, userID string) (string, bool, error) {
	name, err := s.redis.HGet(ctx, s.key(), userID).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("hget: %w", err)
	}
	return name, true, nil
}

func (s *ProfileStore) SetDisplayName(ctx context.Context, userID, name string) error {
	if err := s.redis.HSet(ctx, s.key(), userID, name).Err(); err != nil {
		return fmt.Errorf("hset: %w", err)
	}
	return nil
}

func (s *ProfileStore) key() string {
	return fmt.Sprintf("%s:profiles", s.prefix)
}

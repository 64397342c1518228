package leaderboard

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/victornm/asking/internal/domain"
	"github.com/victornm/asking/internal/errors"
	"github.com/victornm/asking/internal/event"
	"github.com/victornm/asking/internal/telemetry"
)

const (
	DefaultCollection = "scores"

	fetchTimeout = 10 * time.Second
)

// ScoreStore is the remote, append-only record store.
type ScoreStore interface {
	Append(ctx context.Context, collection string, r domain.ScoreRecord) error
	FetchAll(ctx context.Context, collection string) ([]domain.ScoreRecord, error)
}

type Config struct {
	// EventBus defaults to a private bus, which leaves completed sessions unrecorded.
	EventBus   *event.Bus
	Store      ScoreStore
	Collection string
	// WriteRetries is how many times a failed append is retried. Zero or negative disables retries.
	WriteRetries int
}

type Service struct {
	eb         *event.Bus
	store      ScoreStore
	collection string
	retries    int
	sf         singleflight.Group
}

func NewService(c Config) *Service {
	s := &Service{
		eb:         c.EventBus,
		store:      c.Store,
		collection: c.Collection,
		retries:    max(c.WriteRetries, 0),
	}
	if s.collection == "" {
		s.collection = DefaultCollection
	}
	if s.eb == nil {
		s.eb = event.NewBus()
	}

	s.eb.Subscribe(domain.EventNameSessionCompleted, func(ctx context.Context, e event.Event) error {
		r := e.(domain.EventSessionCompleted).Result
		return s.RecordResult(ctx, RecordResultRequest{
			UserName: r.UserName,
			Points:   r.Points,
		})
	})

	return s
}

type RecordResultRequest struct {
	UserName string
	Points   int
}

// RecordResult appends a score record. Every completed session gets its own
// record, so a user may appear many times. On success the new ranking is
// published as leaderboard.updated.
func (s *Service) RecordResult(ctx context.Context, req RecordResultRequest) error {
	if req.Points < 0 {
		return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("points must not be negative: %d", req.Points))
	}

	rec := domain.ScoreRecord{UserName: req.UserName, Points: req.Points}

	var err error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			telemetry.ScoreWrites.WithLabelValues("retried").Inc()
		}
		if err = s.store.Append(ctx, s.collection, rec); err == nil {
			break
		}
		slog.WarnContext(ctx, "leaderboard: append failed",
			"user", rec.UserName,
			"attempt", attempt+1,
			"error", err,
		)
	}
	if err != nil {
		telemetry.ScoreWrites.WithLabelValues("failed").Inc()
		return fmt.Errorf("record result: user=%s points=%d: %w", rec.UserName, rec.Points, err)
	}
	telemetry.ScoreWrites.WithLabelValues("ok").Inc()

	// A read already in flight may predate the append.
	s.sf.Forget(s.collection)
	entries, err := s.fetch(ctx)
	if err != nil {
		// The record is stored; subscribers will see it on their next read.
		slog.WarnContext(ctx, "leaderboard: skip publishing update", "error", err)
		return nil
	}

	s.eb.Publish(ctx, domain.EventLeaderboardUpdated{
		Leaderboard: domain.Leaderboard{
			Collection: s.collection,
			Entries:    entries,
		},
	})

	return nil
}

// ListRanked returns every record, best first. Read failures are logged and
// yield an empty leaderboard.
func (s *Service) ListRanked(ctx context.Context) []domain.ScoreRecord {
	entries, err := s.fetch(ctx)
	if err != nil {
		slog.WarnContext(ctx, "leaderboard: fetch failed, serving empty leaderboard", "error", err)
		return []domain.ScoreRecord{}
	}
	return entries
}

// fetch reads and ranks the collection. Concurrent calls share one store round
// trip, which is not bound to any single caller's cancellation.
func (s *Service) fetch(ctx context.Context) ([]domain.ScoreRecord, error) {
	ch := s.sf.DoChan(s.collection, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()

		records, err := s.store.FetchAll(fctx, s.collection)
		if err != nil {
			telemetry.LeaderboardReads.WithLabelValues("failed").Inc()
			return nil, fmt.Errorf("fetch %s: %w", s.collection, err)
		}
		telemetry.LeaderboardReads.WithLabelValues("ok").Inc()
		return Rank(records), nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, fmt.Errorf("fetch %s: %w", s.collection, ctx.Err())
	}
	if res.Err != nil {
		return nil, res.Err
	}

	// Callers sharing a flight must not share the slice.
	shared := res.Val.([]domain.ScoreRecord)
	return append(make([]domain.ScoreRecord, 0, len(shared)), shared...), nil
}

// Rank sorts a copy of records by points, highest first. Equal points are
// ordered by user name, then by their original order.
func Rank(records []domain.ScoreRecord) []domain.ScoreRecord {
	out := append(make([]domain.ScoreRecord, 0, len(records)), records...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].UserName < out[j].UserName
	})
	return out
}

type Summary struct {
	Records       int             `json:"records"`
	Players       int             `json:"players"`
	BestPoints    int             `json:"bestPoints"`
	AveragePoints decimal.Decimal `json:"averagePoints"`
}

// Summary aggregates the collection. Unlike ListRanked it reports store failures.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	entries, err := s.fetch(ctx)
	if err != nil {
		return nil, errors.New(errors.CodeUnavailable, errors.WithCause(err))
	}

	sum := &Summary{
		Records:       len(entries),
		AveragePoints: decimal.Zero,
	}
	if len(entries) == 0 {
		return sum, nil
	}

	players := make(map[string]struct{})
	var total int64
	for _, e := range entries {
		players[e.UserName] = struct{}{}
		total += int64(e.Points)
	}

	sum.Players = len(players)
	sum.BestPoints = entries[0].Points
	sum.AveragePoints = decimal.NewFromInt(total).Div(decimal.NewFromInt(int64(len(entries)))).Round(2)
	return sum, nil
}

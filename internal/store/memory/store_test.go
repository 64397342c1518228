package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/victornm/asking/internal/domain"
)

func TestScoreStore_AppendOnlyPerCollection(t *testing.T) {
	ctx := context.Background()
	s := NewScoreStore()

	require.NoError(t, s.Append(ctx, "scores", domain.ScoreRecord{UserName: "Ana", Points: 3}))
	require.NoError(t, s.Append(ctx, "scores", domain.ScoreRecord{UserName: "Ana", Points: 3}))
	require.NoError(t, s.Append(ctx, "other", domain.ScoreRecord{UserName: "Leo", Points: 5}))

	got, err := s.FetchAll(ctx, "scores")
	require.NoError(t, err)
	require.Equal(t, []domain.ScoreRecord{{UserName: "Ana", Points: 3}, {UserName: "Ana", Points: 3}}, got)

	got[0].Points = 100
	again, err := s.FetchAll(ctx, "scores")
	require.NoError(t, err)
	require.Equal(t, 3, again[0].Points, "fetch must return a copy")

	empty, err := s.FetchAll(ctx, "missing")
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestProfileStore(t *testing.T) {
	ctx := context.Background()
	s := NewProfileStore()

	_, ok, err := s.DisplayName(ctx, "u1")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.SetDisplayName(ctx, "u1", "Ana"))
	name, ok, err := s.DisplayName(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Ana", name)
}

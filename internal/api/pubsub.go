package api

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/victornm/asking/internal/domain"
)

const maxConcurrent = 100

type Notification struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// PublishLeaderboardUpdated notifies every player on the leaderboard once,
// however many records they have.
func (a *API) PublishLeaderboardUpdated(ctx context.Context, e domain.EventLeaderboardUpdated) error {
	data := leaderboardOf(e.Leaderboard.Entries)

	var eg errgroup.Group
	eg.SetLimit(maxConcurrent)

	seen := make(map[string]struct{}, len(data.Entries))
	for _, entry := range data.Entries {
		if _, ok := seen[entry.UserName]; ok {
			continue
		}
		seen[entry.UserName] = struct{}{}

		eg.Go(func() error {
			return a.publishNotification(ctx, entry.UserName, e.Name(), data)
		})
	}

	return eg.Wait()
}

func (a *API) publishNotification(ctx context.Context, user, event string, data any) error {
	n := Notification{
		Event: event,
		Data:  data,
	}

	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("pubsub: marshal %s: %v", event, err)
	}

	return a.redis.Publish(ctx, UserChannel(a.prefix, user), b).Err()
}

// UserChannel is the Redis channel a player's notifications are published on.
func UserChannel(prefix, user string) string {
	return fmt.Sprintf("%s:user:%s", prefix, user)
}

package statistic

import (
	"context"
	"errors"

	"github.com/impact-lab/backend/internal/model"
	"github.com/impact-lab/backend/internal/repository"
	"github.com/impact-lab/backend/pkg/errorx"
	"github.com/impact-lab/backend/pkg/xcontext"
	"github.com/impact-lab/backend/pkg/xredis"
	"github.com/redis/go-redis/v9"
)

// loadLimit is the number of top users copied into redis when the
// leaderboard key is missing.
const loadLimit = 1000

// Leaderboard is a redis projection of users ordered by their total impact
// score. The database stays the source of truth, a missing key is rebuilt
// from it.
type Leaderboard interface {
	GetLeaderboard(ctx context.Context, offset, limit int) ([]model.LeaderboardEntry, error)
	GetRank(ctx context.Context, userID string) (uint64, error)
	SetImpactScore(ctx context.Context, userID string, score int64) error

	// Reset drops the projection, it is rebuilt on the next read.
	Reset(ctx context.Context) error
}

type leaderboard struct {
	userRepo    repository.UserRepository
	redisClient xredis.Client
}

func New(userRepo repository.UserRepository, redisClient xredis.Client) *leaderboard {
	return &leaderboard{userRepo: userRepo, redisClient: redisClient}
}

func (l *leaderboard) GetLeaderboard(
	ctx context.Context, offset, limit int,
) ([]model.LeaderboardEntry, error) {
	key := redisKeyImpactLeaderboard("")
	if err := l.ensureLoaded(ctx, key); err != nil {
		return nil, err
	}

	results, err := l.redisClient.ZRevRangeWithScores(ctx, key, offset, limit)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get revrange redis: %v", err)
		return nil, errorx.Unknown
	}

	userIDs := []string{}
	for _, z := range results {
		userIDs = append(userIDs, z.Member.(string))
	}

	users, err := l.userRepo.GetByIDs(ctx, userIDs)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get users: %v", err)
		return nil, errorx.Unknown
	}

	names := map[string]string{}
	for _, u := range users {
		names[u.ID] = u.Name
	}

	leaderboard := []model.LeaderboardEntry{}
	for i, z := range results {
		userID := z.Member.(string)
		leaderboard = append(leaderboard, model.LeaderboardEntry{
			User:  model.User{ID: userID, Name: names[userID]},
			Value: int64(z.Score),
			Rank:  offset + i + 1,
		})
	}

	return leaderboard, nil
}

// GetRank returns the 1-based rank of the user, 0 if the user is not ranked.
func (l *leaderboard) GetRank(ctx context.Context, userID string) (uint64, error) {
	key := redisKeyImpactLeaderboard("")
	if err := l.ensureLoaded(ctx, key); err != nil {
		return 0, err
	}

	rank, err := l.redisClient.ZRevRank(ctx, key, userID)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}

		xcontext.Logger(ctx).Errorf("Cannot get rank from redis: %v", err)
		return 0, errorx.Unknown
	}

	return rank + 1, nil
}

// SetImpactScore writes the new total of a user. Nothing is written while the
// key is missing, the next read rebuilds it with the total already included.
func (l *leaderboard) SetImpactScore(ctx context.Context, userID string, score int64) error {
	key := redisKeyImpactLeaderboard("")
	ok, err := l.redisClient.Exist(ctx, key)
	if err != nil {
		return err
	}

	if !ok {
		return nil
	}

	return l.redisClient.ZAdd(ctx, key, redis.Z{Member: userID, Score: float64(score)})
}

func (l *leaderboard) Reset(ctx context.Context) error {
	return l.redisClient.Del(ctx, redisKeyImpactLeaderboard(""))
}

func (l *leaderboard) ensureLoaded(ctx context.Context, key string) error {
	ok, err := l.redisClient.Exist(ctx, key)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot call exist redis: %v", err)
		return errorx.Unknown
	}

	// If the key didn't exist in redis, load it from database.
	if ok {
		return nil
	}

	users, err := l.userRepo.GetTopByImpactScore(ctx, 0, loadLimit)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot load leaderboard from database: %v", err)
		return errorx.Unknown
	}

	if len(users) == 0 {
		return nil
	}

	members := []redis.Z{}
	for _, u := range users {
		members = append(members, redis.Z{Member: u.ID, Score: float64(u.TotalImpactScore)})
	}

	if err := l.redisClient.ZAdd(ctx, key, members...); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot add leaderboard to redis: %v", err)
		return errorx.Unknown
	}

	return nil
}

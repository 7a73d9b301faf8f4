package statistic

import (
	"fmt"

	"github.com/impact-lab/backend/internal/common"
)

func redisKeyImpactLeaderboard(community string) string {
	if community == "" {
		return common.RedisKeyImpactLeaderboard
	}

	return fmt.Sprintf("%s:%s", common.RedisKeyImpactLeaderboard, community)
}

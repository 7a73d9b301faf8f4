package migration

import (
	"context"

	"github.com/impact-lab/backend/internal/entity"
	"github.com/impact-lab/backend/pkg/xcontext"
)

type confirmedTotal struct {
	UserID string
	Total  int64
}

// migrate0001 rebuilds token balances and impact scores from the confirmed
// rewards.
func migrate0001(ctx context.Context) error {
	var totals []confirmedTotal
	err := xcontext.DB(ctx).Model(&entity.Reward{}).
		Select("user_id, SUM(token_amount) AS total").
		Where("status=?", entity.RewardConfirmed).
		Group("user_id").
		Scan(&totals).Error
	if err != nil {
		return err
	}

	err = xcontext.DB(ctx).Model(&entity.User{}).
		Where("1=1").
		Updates(map[string]any{"token_balance": 0, "total_impact_score": 0}).Error
	if err != nil {
		return err
	}

	for _, t := range totals {
		err := xcontext.DB(ctx).Model(&entity.User{}).
			Where("id=?", t.UserID).
			Updates(map[string]any{"token_balance": t.Total, "total_impact_score": t.Total}).Error
		if err != nil {
			return err
		}
	}

	return nil
}

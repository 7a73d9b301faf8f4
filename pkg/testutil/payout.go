package testutil

import (
	"context"
	"fmt"

	"github.com/impact-lab/backend/internal/entity"
)

type MockPayoutCaller struct {
	PayoutFunc func(ctx context.Context, reward *entity.Reward, wallet string) (string, error)
}

func (m *MockPayoutCaller) Payout(ctx context.Context, reward *entity.Reward, wallet string) (string, error) {
	if m.PayoutFunc != nil {
		return m.PayoutFunc(ctx, reward, wallet)
	}

	return fmt.Sprintf("tx-%s", reward.ID), nil
}

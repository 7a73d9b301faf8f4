package migration

import (
	"testing"

	"github.com/impact-lab/backend/internal/entity"
	"github.com/impact-lab/backend/internal/repository"
	"github.com/impact-lab/backend/pkg/testutil"
	"github.com/impact-lab/backend/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

func Test_Migrate_AutoMigrate(t *testing.T) {
	ctx := testutil.NewMockContext()
	require.NoError(t, Migrate(ctx))

	migrator := xcontext.DB(ctx).Migrator()
	for _, table := range []any{&entity.Achievement{}, &entity.Reward{}, &entity.RewardIntent{}, &entity.Notification{}} {
		require.True(t, migrator.HasTable(table))
	}
}

func Test_Run_0001(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.InsertUsers(ctx)

	rewardRepo := repository.NewRewardRepository()
	rewards := []entity.Reward{
		{Base: entity.Base{ID: "r1"}, UserID: testutil.User1.ID, TokenAmount: 100, Status: entity.RewardConfirmed},
		{Base: entity.Base{ID: "r2"}, UserID: testutil.User1.ID, TokenAmount: 50, Status: entity.RewardConfirmed},
		{Base: entity.Base{ID: "r3"}, UserID: testutil.User1.ID, TokenAmount: 70, Status: entity.RewardPending},
		{Base: entity.Base{ID: "r4"}, UserID: testutil.User2.ID, TokenAmount: 30, Status: entity.RewardFailed},
	}
	for i := range rewards {
		require.NoError(t, rewardRepo.Create(ctx, &rewards[i]))
	}

	// A drifted balance is repaired.
	require.NoError(t, xcontext.DB(ctx).Model(&entity.User{}).
		Where("id=?", testutil.User2.ID).Update("token_balance", 999).Error)

	applied, err := Run(ctx, "0001")
	require.NoError(t, err)
	require.True(t, applied)

	userRepo := repository.NewUserRepository()
	user1, err := userRepo.GetByID(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.Equal(t, int64(150), user1.TokenBalance)
	require.Equal(t, int64(150), user1.TotalImpactScore)

	user2, err := userRepo.GetByID(ctx, testutil.User2.ID)
	require.NoError(t, err)
	require.Equal(t, int64(0), user2.TokenBalance)

	applied, err = Run(ctx, "0001")
	require.NoError(t, err)
	require.False(t, applied)

	_, err = Run(ctx, "9999")
	require.Error(t, err)
}

package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/impact-lab/backend/pkg/xcontext"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (context.Context, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return xcontext.WithDB(context.Background(), gormDB), mock
}

func Test_rewardRepository_Confirm(t *testing.T) {
	ctx, mock := newMockDB(t)
	repo := NewRewardRepository()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE `rewards` SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Confirm(ctx, "reward1", "tx1"))

	// The reward is not pending anymore.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `rewards` SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Confirm(ctx, "reward1", "tx1")
	require.True(t, errors.Is(err, ErrNotMatched))

	require.NoError(t, mock.ExpectationsWereMet())
}

func Test_rewardRepository_Fail_DatabaseError(t *testing.T) {
	ctx, mock := newMockDB(t)
	repo := NewRewardRepository()

	dbErr := errors.New("connection lost")
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `rewards` SET")).WillReturnError(dbErr)

	err := repo.Fail(ctx, "reward1", "payout_failed", "timeout")
	require.ErrorIs(t, err, dbErr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func Test_rewardRepository_SumConfirmedByUserID(t *testing.T) {
	ctx, mock := newMockDB(t)
	repo := NewRewardRepository()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(token_amount), 0) FROM `rewards`")).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(int64(150)))

	sum, err := repo.SumConfirmedByUserID(ctx, "user1")
	require.NoError(t, err)
	require.Equal(t, int64(150), sum)
	require.NoError(t, mock.ExpectationsWereMet())
}

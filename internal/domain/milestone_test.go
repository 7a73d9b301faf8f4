package domain

import (
	"testing"
	"time"

	"github.com/impact-lab/backend/internal/entity"
	"github.com/impact-lab/backend/internal/model"
	"github.com/impact-lab/backend/pkg/errorx"
	"github.com/impact-lab/backend/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func Test_milestoneDomain_Create(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestDomains(ctx, nil)
	adminCtx := testutil.NewMockContextWithUserID(ctx, testutil.Admin.ID)

	valid := model.CreateMilestoneRequest{
		Title:        "Clean the river bank",
		RewardAmount: 80,
		Category:     "environment",
		Difficulty:   "easy",
	}

	testCases := []struct {
		name    string
		ctx     bool
		mutate  func(*model.CreateMilestoneRequest)
		wantErr errorx.Code
	}{
		{
			name:    "not admin",
			mutate:  func(r *model.CreateMilestoneRequest) {},
			wantErr: errorx.PermissionDenied,
		},
		{
			name:    "empty title",
			ctx:     true,
			mutate:  func(r *model.CreateMilestoneRequest) { r.Title = " " },
			wantErr: errorx.BadRequest,
		},
		{
			name:    "zero amount",
			ctx:     true,
			mutate:  func(r *model.CreateMilestoneRequest) { r.RewardAmount = 0 },
			wantErr: errorx.BadRequest,
		},
		{
			name:    "invalid difficulty",
			ctx:     true,
			mutate:  func(r *model.CreateMilestoneRequest) { r.Difficulty = "extreme" },
			wantErr: errorx.BadRequest,
		},
		{
			name:    "invalid verification mode",
			ctx:     true,
			mutate:  func(r *model.CreateMilestoneRequest) { r.VerificationMode = "oracle" },
			wantErr: errorx.BadRequest,
		},
		{
			name:    "invalid deadline",
			ctx:     true,
			mutate:  func(r *model.CreateMilestoneRequest) { r.Deadline = "tomorrow" },
			wantErr: errorx.BadRequest,
		},
		{
			name: "past deadline",
			ctx:  true,
			mutate: func(r *model.CreateMilestoneRequest) {
				r.Deadline = time.Now().Add(-time.Hour).Format(time.RFC3339)
			},
			wantErr: errorx.BadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.mutate(&req)

			reqCtx := testutil.NewMockContextWithUserID(ctx, testutil.User1.ID)
			if tc.ctx {
				reqCtx = adminCtx
			}

			_, err := d.milestone.Create(reqCtx, &req)
			require.True(t, errorx.Is(err, tc.wantErr), "got %v", err)
		})
	}

	req := valid
	req.Deadline = time.Now().Add(24 * time.Hour).Format(time.RFC3339)
	resp, err := d.milestone.Create(adminCtx, &req)
	require.NoError(t, err)

	got, err := d.milestone.Get(ctx, &model.GetMilestoneRequest{ID: resp.ID})
	require.NoError(t, err)
	require.Equal(t, valid.Title, got.Title)
	require.Equal(t, entity.DefaultRewardToken, got.RewardToken)
	require.Equal(t, string(entity.VerificationManual), got.VerificationMode)
	require.Equal(t, testutil.Admin.ID, got.CreatedBy)
	require.NotEmpty(t, got.Deadline)
}

func Test_milestoneDomain_GetList(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestDomains(ctx, nil)

	resp, err := d.milestone.GetList(ctx, &model.GetListMilestoneRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Milestones, len(testutil.Milestones))

	resp, err = d.milestone.GetList(ctx, &model.GetListMilestoneRequest{Category: "education"})
	require.NoError(t, err)
	require.Len(t, resp.Milestones, 1)
	require.Equal(t, testutil.ExpiredMilestone.ID, resp.Milestones[0].ID)

	resp, err = d.milestone.GetList(ctx, &model.GetListMilestoneRequest{Difficulty: "easy"})
	require.NoError(t, err)
	require.Len(t, resp.Milestones, 1)
	require.Equal(t, testutil.Milestone2.ID, resp.Milestones[0].ID)

	_, err = d.milestone.GetList(ctx, &model.GetListMilestoneRequest{Difficulty: "extreme"})
	require.True(t, errorx.Is(err, errorx.BadRequest))

	_, err = d.milestone.GetList(ctx, &model.GetListMilestoneRequest{Limit: 1000})
	require.True(t, errorx.Is(err, errorx.BadRequest))

	_, err = d.milestone.Get(ctx, &model.GetMilestoneRequest{ID: "unknown"})
	require.True(t, errorx.Is(err, errorx.NotFound))
}

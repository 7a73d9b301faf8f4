package domain

import (
	"bytes"
	"context"
	"database/sql"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/impact-lab/backend/internal/entity"
	"github.com/impact-lab/backend/internal/model"
	"github.com/impact-lab/backend/pkg/errorx"
	"github.com/impact-lab/backend/pkg/storage"
	"github.com/impact-lab/backend/pkg/testutil"
	"github.com/impact-lab/backend/pkg/xcontext"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func Test_achievementDomain_Start(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestDomains(ctx, nil)
	userCtx := testutil.NewMockContextWithUserID(ctx, testutil.User1.ID)

	_, err := d.achievement.Start(userCtx, &model.StartMilestoneRequest{MilestoneID: "unknown"})
	require.True(t, errorx.Is(err, errorx.NotFound))

	_, err = d.achievement.Start(userCtx, &model.StartMilestoneRequest{MilestoneID: testutil.ExpiredMilestone.ID})
	require.True(t, errorx.Is(err, errorx.Unavailable))

	started, err := d.achievement.Start(userCtx, &model.StartMilestoneRequest{MilestoneID: testutil.Milestone1.ID})
	require.NoError(t, err)
	require.Equal(t, testutil.User1.ID, started.UserID)
	require.NotNil(t, started.Milestone)
	require.Equal(t, testutil.Milestone1.Title, started.Milestone.Title)

	// Only one unfinished attempt per user and milestone.
	_, err = d.achievement.Start(userCtx, &model.StartMilestoneRequest{MilestoneID: testutil.Milestone1.ID})
	require.True(t, errorx.Is(err, errorx.AlreadyExists))

	// Another user is not affected.
	user2Ctx := testutil.NewMockContextWithUserID(ctx, testutil.User2.ID)
	_, err = d.achievement.Start(user2Ctx, &model.StartMilestoneRequest{MilestoneID: testutil.Milestone1.ID})
	require.NoError(t, err)
}

func Test_achievementDomain_Start_NotRepeatable(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestDomains(ctx, nil)
	userCtx := testutil.NewMockContextWithUserID(ctx, testutil.User1.ID)

	approveAchievement(t, ctx, d, testutil.User1.ID, testutil.Milestone1.ID)

	_, err := d.achievement.Start(userCtx, &model.StartMilestoneRequest{MilestoneID: testutil.Milestone1.ID})
	require.True(t, errorx.Is(err, errorx.AlreadyExists))
}

func Test_achievementDomain_Start_UniqueIndex(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestDomains(ctx, nil)
	userCtx := testutil.NewMockContextWithUserID(ctx, testutil.User1.ID)

	_, err := d.achievement.Start(userCtx, &model.StartMilestoneRequest{MilestoneID: testutil.Milestone1.ID})
	require.NoError(t, err)

	// A concurrent start which passed the lookup is stopped by the index.
	err = d.achievementRepo.Create(ctx, &entity.Achievement{
		Base:        entity.Base{ID: "duplicated"},
		UserID:      testutil.User1.ID,
		MilestoneID: testutil.Milestone1.ID,
		ActiveSlot:  sql.NullString{Valid: true, String: entity.ActiveSlot},
		Status:      entity.AchievementInProgress,
	})
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func Test_achievementDomain_SubmitEvidence(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestDomains(ctx, nil)
	userCtx := testutil.NewMockContextWithUserID(ctx, testutil.User1.ID)
	user2Ctx := testutil.NewMockContextWithUserID(ctx, testutil.User2.ID)

	started, err := d.achievement.Start(userCtx, &model.StartMilestoneRequest{MilestoneID: testutil.Milestone1.ID})
	require.NoError(t, err)

	_, err = d.achievement.SubmitEvidence(userCtx, &model.SubmitEvidenceRequest{
		AchievementID: started.ID,
		Evidence:      "   ",
	})
	require.True(t, errorx.Is(err, errorx.BadRequest))

	achievement, err := d.achievementRepo.GetByID(ctx, started.ID)
	require.NoError(t, err)
	require.Equal(t, entity.AchievementInProgress, achievement.Status)
	require.Empty(t, achievement.Evidence)

	_, err = d.achievement.SubmitEvidence(user2Ctx, &model.SubmitEvidenceRequest{
		AchievementID: started.ID,
		Evidence:      "http://evidence",
	})
	require.True(t, errorx.Is(err, errorx.PermissionDenied))

	_, err = d.achievement.SubmitEvidence(userCtx, &model.SubmitEvidenceRequest{
		AchievementID: started.ID,
		Evidence:      " http://evidence ",
	})
	require.NoError(t, err)

	achievement, err = d.achievementRepo.GetByID(ctx, started.ID)
	require.NoError(t, err)
	require.Equal(t, "http://evidence", achievement.Evidence)

	_, err = d.achievement.SubmitEvidence(userCtx, &model.SubmitEvidenceRequest{
		AchievementID: started.ID,
		Evidence:      "http://evidence/2",
	})
	require.True(t, errorx.Is(err, errorx.InvalidStateTransition))

	_, err = d.achievement.UpdateProgress(userCtx, &model.UpdateProgressRequest{
		AchievementID: started.ID,
		Progress:      10,
	})
	require.True(t, errorx.Is(err, errorx.InvalidStateTransition))
}

func Test_achievementDomain_UpdateProgress(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestDomains(ctx, nil)
	userCtx := testutil.NewMockContextWithUserID(ctx, testutil.User1.ID)

	started, err := d.achievement.Start(userCtx, &model.StartMilestoneRequest{MilestoneID: testutil.Milestone1.ID})
	require.NoError(t, err)

	testCases := []struct {
		progress int
		want     int
	}{
		{progress: 30, want: 30},
		{progress: 150, want: 100},
		{progress: -5, want: 0},
	}

	for _, tc := range testCases {
		resp, err := d.achievement.UpdateProgress(userCtx, &model.UpdateProgressRequest{
			AchievementID: started.ID,
			Progress:      tc.progress,
		})
		require.NoError(t, err)
		require.Equal(t, tc.want, resp.Progress)

		achievement, err := d.achievementRepo.GetByID(ctx, started.ID)
		require.NoError(t, err)
		require.Equal(t, tc.want, achievement.Progress)
		require.Equal(t, entity.AchievementInProgress, achievement.Status)
	}
}

func Test_achievementDomain_GetMyList(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestDomains(ctx, nil)
	userCtx := testutil.NewMockContextWithUserID(ctx, testutil.User1.ID)
	user2Ctx := testutil.NewMockContextWithUserID(ctx, testutil.User2.ID)
	adminCtx := testutil.NewMockContextWithUserID(ctx, testutil.Admin.ID)

	submitted := submitAchievement(t, ctx, d, testutil.User1.ID, testutil.Milestone1.ID)
	_, err := d.achievement.Start(user2Ctx, &model.StartMilestoneRequest{MilestoneID: testutil.Milestone1.ID})
	require.NoError(t, err)

	resp, err := d.achievement.GetMyList(userCtx, &model.GetMyAchievementsRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Achievements, 1)
	require.Equal(t, submitted, resp.Achievements[0].ID)

	resp, err = d.achievement.GetMyList(userCtx, &model.GetMyAchievementsRequest{Status: "in_progress"})
	require.NoError(t, err)
	require.Empty(t, resp.Achievements)

	_, err = d.achievement.GetMyList(userCtx, &model.GetMyAchievementsRequest{Status: "completed"})
	require.True(t, errorx.Is(err, errorx.BadRequest))

	_, err = d.achievement.Get(user2Ctx, &model.GetAchievementRequest{ID: submitted})
	require.True(t, errorx.Is(err, errorx.PermissionDenied))

	got, err := d.achievement.Get(adminCtx, &model.GetAchievementRequest{ID: submitted})
	require.NoError(t, err)
	require.Equal(t, string(entity.AchievementSubmitted), got.Status)

	_, err = d.achievement.Get(userCtx, &model.GetAchievementRequest{ID: "unknown"})
	require.True(t, errorx.Is(err, errorx.NotFound))
}

func Test_achievementDomain_UploadEvidence(t *testing.T) {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	fw, err := writer.CreateFormFile("evidence", "trees.jpg")
	require.NoError(t, err)
	_, err = fw.Write([]byte("jpeg content"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	request := httptest.NewRequest("POST", "/uploadEvidence", body)
	request.Header.Add("Content-Type", writer.FormDataContentType())

	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestDomains(ctx, nil)

	var uploaded *storage.UploadObject
	d.storage.UploadFunc = func(ctx context.Context, obj *storage.UploadObject) (*storage.UploadResponse, error) {
		uploaded = obj
		return &storage.UploadResponse{Url: "https://cdn/evidence/user1/trees.jpg", FileName: obj.FileName}, nil
	}

	userCtx := testutil.NewMockContextWithUserID(ctx, testutil.User1.ID)
	userCtx = xcontext.WithHTTPRequest(userCtx, request)
	resp, err := d.achievement.UploadEvidence(userCtx, &model.UploadEvidenceRequest{})
	require.NoError(t, err)
	require.Equal(t, "https://cdn/evidence/user1/trees.jpg", resp.URL)
	require.Equal(t, "evidence", uploaded.Bucket)
	require.Equal(t, "evidence/user1", uploaded.Prefix)
	require.Equal(t, []byte("jpeg content"), uploaded.Data)

	// A request without the file is rejected.
	_, err = d.achievement.UploadEvidence(
		xcontext.WithHTTPRequest(userCtx, httptest.NewRequest("POST", "/uploadEvidence", nil)),
		&model.UploadEvidenceRequest{},
	)
	require.True(t, errorx.Is(err, errorx.BadRequest))
}

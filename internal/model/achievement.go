package model

type StartMilestoneRequest struct {
	MilestoneID string `json:"milestone_id"`
}

type StartMilestoneResponse Achievement

type SubmitEvidenceRequest struct {
	AchievementID string `json:"achievement_id"`
	Evidence      string `json:"evidence"`
}

type SubmitEvidenceResponse Achievement

type UpdateProgressRequest struct {
	AchievementID string `json:"achievement_id"`
	Progress      int    `json:"progress"`
}

type UpdateProgressResponse Achievement

type UploadEvidenceRequest struct{}

type UploadEvidenceResponse struct {
	URL string `json:"url"`
}

type GetMyAchievementsRequest struct {
	Status string `json:"status" form:"status"`

	Offset int `json:"offset" form:"offset"`
	Limit  int `json:"limit" form:"limit"`
}

type GetMyAchievementsResponse struct {
	Achievements []Achievement `json:"achievements"`
}

type GetAchievementRequest struct {
	ID string `json:"id" form:"id"`
}

type GetAchievementResponse Achievement

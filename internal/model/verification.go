package model

type DecideRequest struct {
	AchievementID   string `json:"achievement_id"`
	Approve         bool   `json:"approve"`
	RejectionReason string `json:"rejection_reason"`
}

type DecideResponse Achievement

type DecideAllRequest struct {
	AchievementIDs  []string `json:"achievement_ids"`
	Approve         bool     `json:"approve"`
	RejectionReason string   `json:"rejection_reason"`
}

type DecideAllResponse struct {
	Results []DecisionResult `json:"results"`
}

type GetPendingAchievementsRequest struct {
	MilestoneID string `json:"milestone_id" form:"milestone_id"`

	Offset int `json:"offset" form:"offset"`
	Limit  int `json:"limit" form:"limit"`
}

type GetPendingAchievementsResponse struct {
	Achievements []Achievement `json:"achievements"`
}

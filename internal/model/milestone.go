package model

type CreateMilestoneRequest struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	RewardAmount     int64  `json:"reward_amount"`
	RewardToken      string `json:"reward_token"`
	Category         string `json:"category"`
	Difficulty       string `json:"difficulty"`
	Deadline         string `json:"deadline"`
	VerificationMode string `json:"verification_mode"`
	Repeatable       bool   `json:"repeatable"`
}

type CreateMilestoneResponse struct {
	ID string `json:"id"`
}

type GetMilestoneRequest struct {
	ID string `json:"id" form:"id"`
}

type GetMilestoneResponse Milestone

type GetListMilestoneRequest struct {
	Category   string `json:"category" form:"category"`
	Difficulty string `json:"difficulty" form:"difficulty"`

	Offset int `json:"offset" form:"offset"`
	Limit  int `json:"limit" form:"limit"`
}

type GetListMilestoneResponse struct {
	Milestones []Milestone `json:"milestones"`
}

package model

type ConfirmRewardRequest struct {
	RewardID string `json:"reward_id"`
	TxHash   string `json:"tx_hash"`
}

type ConfirmRewardResponse Reward

type FailRewardRequest struct {
	RewardID     string `json:"reward_id"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

type FailRewardResponse Reward

type RetryRewardRequest struct {
	RewardID string `json:"reward_id"`
}

type RetryRewardResponse Reward

type DistributeAllRequest struct {
	RewardIDs []string `json:"reward_ids"`
}

type DistributeAllResponse struct {
	Confirmed []string       `json:"confirmed"`
	Failed    []FailedReward `json:"failed"`
}

type ReconcileRewardsRequest struct{}

type ReconcileRewardsResponse struct {
	Applied []string `json:"applied"`
}

type GetMyRewardsRequest struct {
	Status string `json:"status" form:"status"`

	Offset int `json:"offset" form:"offset"`
	Limit  int `json:"limit" form:"limit"`
}

type GetMyRewardsResponse struct {
	Rewards []Reward `json:"rewards"`
}

type GetPendingRewardsRequest struct {
	UserID string `json:"user_id" form:"user_id"`

	Offset int `json:"offset" form:"offset"`
	Limit  int `json:"limit" form:"limit"`
}

type GetPendingRewardsResponse struct {
	Rewards []Reward `json:"rewards"`
}

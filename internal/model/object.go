package model

type User struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	WalletAddress    string `json:"wallet_address,omitempty"`
	Role             string `json:"role"`
	Community        string `json:"community,omitempty"`
	TokenBalance     int64  `json:"token_balance"`
	TotalImpactScore int64  `json:"total_impact_score"`
}

type Milestone struct {
	ID               string `json:"id"`
	CreatedAt        string `json:"created_at"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	RewardAmount     int64  `json:"reward_amount"`
	RewardToken      string `json:"reward_token"`
	Category         string `json:"category"`
	Difficulty       string `json:"difficulty"`
	Deadline         string `json:"deadline,omitempty"`
	VerificationMode string `json:"verification_mode"`
	Repeatable       bool   `json:"repeatable"`
	CreatedBy        string `json:"created_by"`
}

type Achievement struct {
	ID                 string     `json:"id"`
	CreatedAt          string     `json:"created_at"`
	UpdatedAt          string     `json:"updated_at"`
	UserID             string     `json:"user_id"`
	MilestoneID        string     `json:"milestone_id"`
	Milestone          *Milestone `json:"milestone,omitempty"`
	Status             string     `json:"status"`
	VerificationStatus string     `json:"verification_status"`
	Progress           int        `json:"progress"`
	Evidence           string     `json:"evidence,omitempty"`
	SubmittedAt        string     `json:"submitted_at,omitempty"`
	CompletedAt        string     `json:"completed_at,omitempty"`
	VerifierID         string     `json:"verifier_id,omitempty"`
	RejectionReason    string     `json:"rejection_reason,omitempty"`
}

type Reward struct {
	ID            string `json:"id"`
	CreatedAt     string `json:"created_at"`
	UserID        string `json:"user_id"`
	AchievementID string `json:"achievement_id,omitempty"`
	TokenAmount   int64  `json:"token_amount"`
	TokenType     string `json:"token_type"`
	Status        string `json:"status"`
	TxHash        string `json:"tx_hash,omitempty"`
	Description   string `json:"description"`
	ErrorCode     string `json:"error_code,omitempty"`
	ErrorMessage  string `json:"error_message,omitempty"`
	RetryCount    int    `json:"retry_count"`
	RetryOf       string `json:"retry_of,omitempty"`
}

type Notification struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	IsRead    bool   `json:"is_read"`
	Priority  string `json:"priority"`
	ActionRef string `json:"action_ref,omitempty"`
}

type LeaderboardEntry struct {
	User  User  `json:"user"`
	Value int64 `json:"value"`
	Rank  int   `json:"rank"`
}

type DecisionResult struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Code    int64  `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

type FailedReward struct {
	RewardID string `json:"reward_id"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

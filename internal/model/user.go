package model

type GetMeRequest struct{}

type GetMeResponse User

type GetLeaderboardRequest struct {
	Offset int `json:"offset" form:"offset"`
	Limit  int `json:"limit" form:"limit"`
}

type GetLeaderboardResponse struct {
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

// AccessToken is the object carried by the JWT bearer token.
type AccessToken struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

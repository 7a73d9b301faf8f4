package common

const (
	// SystemVerifierID is recorded as the verifier of automatically verified
	// achievements.
	SystemVerifierID = "system"

	// ReconcileBatchSize bounds the number of reward intents resumed at once.
	ReconcileBatchSize = 100

	RedisKeyImpactLeaderboard = "leaderboard:impact_score"
)

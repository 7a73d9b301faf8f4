package domain

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/impact-lab/backend/internal/entity"
	"github.com/impact-lab/backend/internal/model"
)

const defaultTimeLayout string = time.RFC3339Nano

func formatNullTime(t sql.NullTime) string {
	if !t.Valid {
		return ""
	}

	return t.Time.Format(defaultTimeLayout)
}

func convertUser(user *entity.User, includeSensitive bool) model.User {
	if user == nil {
		return model.User{}
	}

	result := model.User{
		ID:               user.ID,
		Name:             user.Name,
		Community:        user.Community.String,
		TokenBalance:     user.TokenBalance,
		TotalImpactScore: user.TotalImpactScore,
	}

	if includeSensitive {
		result.Role = string(user.Role)
		result.WalletAddress = user.WalletAddress.String
	}

	return result
}

func convertMilestone(milestone *entity.Milestone) model.Milestone {
	if milestone == nil {
		return model.Milestone{}
	}

	return model.Milestone{
		ID:               milestone.ID,
		CreatedAt:        milestone.CreatedAt.Format(defaultTimeLayout),
		Title:            milestone.Title,
		Description:      milestone.Description,
		RewardAmount:     milestone.RewardAmount,
		RewardToken:      milestone.RewardToken,
		Category:         milestone.Category,
		Difficulty:       string(milestone.Difficulty),
		Deadline:         formatNullTime(milestone.Deadline),
		VerificationMode: string(milestone.VerificationMode),
		Repeatable:       milestone.Repeatable,
		CreatedBy:        milestone.CreatedBy,
	}
}

func convertAchievement(achievement *entity.Achievement, milestone *entity.Milestone) model.Achievement {
	if achievement == nil {
		return model.Achievement{}
	}

	var modelMilestone *model.Milestone
	if milestone != nil && milestone.ID != "" {
		m := convertMilestone(milestone)
		modelMilestone = &m
	}

	return model.Achievement{
		ID:                 achievement.ID,
		CreatedAt:          achievement.CreatedAt.Format(defaultTimeLayout),
		UpdatedAt:          achievement.UpdatedAt.Format(defaultTimeLayout),
		UserID:             achievement.UserID,
		MilestoneID:        achievement.MilestoneID,
		Milestone:          modelMilestone,
		Status:             string(achievement.Status),
		VerificationStatus: string(achievement.VerificationStatus),
		Progress:           achievement.Progress,
		Evidence:           achievement.Evidence,
		SubmittedAt:        formatNullTime(achievement.SubmittedAt),
		CompletedAt:        formatNullTime(achievement.CompletedAt),
		VerifierID:         achievement.VerifierID.String,
		RejectionReason:    achievement.RejectionReason,
	}
}

func convertReward(reward *entity.Reward) model.Reward {
	if reward == nil {
		return model.Reward{}
	}

	return model.Reward{
		ID:            reward.ID,
		CreatedAt:     reward.CreatedAt.Format(defaultTimeLayout),
		UserID:        reward.UserID,
		AchievementID: reward.AchievementID.String,
		TokenAmount:   reward.TokenAmount,
		TokenType:     reward.TokenType,
		Status:        string(reward.Status),
		TxHash:        reward.TxHash.String,
		Description:   reward.Description,
		ErrorCode:     reward.ErrorCode,
		ErrorMessage:  reward.ErrorMessage,
		RetryCount:    reward.RetryCount,
		RetryOf:       reward.RetryOf.String,
	}
}

func convertNotification(notification *entity.Notification) model.Notification {
	if notification == nil {
		return model.Notification{}
	}

	return model.Notification{
		ID:        strconv.FormatInt(notification.ID, 10),
		CreatedAt: notification.CreatedAt.Format(defaultTimeLayout),
		Type:      string(notification.Type),
		Title:     notification.Title,
		Message:   notification.Message,
		IsRead:    notification.IsRead,
		Priority:  string(notification.Priority),
		ActionRef: notification.ActionRef.String,
	}
}

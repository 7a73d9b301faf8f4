package testutil

import (
	"context"
	"database/sql"
	"time"

	"github.com/impact-lab/backend/internal/entity"
	"github.com/impact-lab/backend/internal/repository"
)

var (
	User1 = &entity.User{
		Base:  entity.Base{ID: "user1"},
		Name:  "user1",
		Email: "user1@example.com",
		Role:  entity.RoleUser,
		WalletAddress: sql.NullString{
			Valid:  true,
			String: "0x8ba1f109551bD432803012645Ac136ddd64DBA72",
		},
	}

	User2 = &entity.User{
		Base:  entity.Base{ID: "user2"},
		Name:  "user2",
		Email: "user2@example.com",
		Role:  entity.RoleUser,
	}

	Admin = &entity.User{
		Base:  entity.Base{ID: "admin"},
		Name:  "admin",
		Email: "admin@example.com",
		Role:  entity.RoleAdmin,
	}

	Users = []*entity.User{User1, User2, Admin}
)

var (
	// Milestone1 needs manual verification.
	Milestone1 = &entity.Milestone{
		Base:             entity.Base{ID: "milestone1"},
		Title:            "Plant ten trees",
		Description:      "Plant ten trees in your neighborhood",
		RewardAmount:     150,
		RewardToken:      entity.DefaultRewardToken,
		Category:         "environment",
		Difficulty:       entity.DifficultyMedium,
		VerificationMode: entity.VerificationManual,
		CreatedBy:        Admin.ID,
	}

	// Milestone2 is verified automatically and can be done many times.
	Milestone2 = &entity.Milestone{
		Base:             entity.Base{ID: "milestone2"},
		Title:            "Pick up litter",
		Description:      "Collect a bag of litter",
		RewardAmount:     40,
		RewardToken:      entity.DefaultRewardToken,
		Category:         "environment",
		Difficulty:       entity.DifficultyEasy,
		VerificationMode: entity.VerificationAuto,
		Repeatable:       true,
		CreatedBy:        Admin.ID,
	}

	ExpiredMilestone = &entity.Milestone{
		Base:             entity.Base{ID: "expired milestone"},
		Title:            "Teach a workshop",
		RewardAmount:     300,
		RewardToken:      entity.DefaultRewardToken,
		Category:         "education",
		Difficulty:       entity.DifficultyHard,
		VerificationMode: entity.VerificationManual,
		Deadline:         sql.NullTime{Valid: true, Time: time.Now().Add(-24 * time.Hour)},
		CreatedBy:        Admin.ID,
	}

	Milestones = []*entity.Milestone{Milestone1, Milestone2, ExpiredMilestone}
)

func CreateFixtureDb(ctx context.Context) {
	InsertUsers(ctx)
	InsertMilestones(ctx)
}

func InsertUsers(ctx context.Context) {
	userRepo := repository.NewUserRepository()
	for _, u := range Users {
		user := *u
		if err := userRepo.Create(ctx, &user); err != nil {
			panic(err)
		}
	}
}

func InsertMilestones(ctx context.Context) {
	milestoneRepo := repository.NewMilestoneRepository()
	for _, m := range Milestones {
		milestone := *m
		if err := milestoneRepo.Create(ctx, &milestone); err != nil {
			panic(err)
		}
	}
}

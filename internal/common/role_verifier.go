package common

import (
	"context"
	"errors"

	"github.com/impact-lab/backend/internal/entity"
	"github.com/impact-lab/backend/internal/repository"
	"github.com/impact-lab/backend/pkg/xcontext"
	"golang.org/x/exp/slices"
)

type GlobalRoleVerifier struct {
	userRepo repository.UserRepository
}

func NewGlobalRoleVerifier(userRepo repository.UserRepository) *GlobalRoleVerifier {
	return &GlobalRoleVerifier{userRepo: userRepo}
}

func (verifier *GlobalRoleVerifier) Verify(ctx context.Context, roles ...entity.GlobalRole) error {
	userID := xcontext.RequestUserID(ctx)
	if userID == "" {
		return errors.New("unauthenticated")
	}

	user, err := verifier.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if !slices.Contains(roles, user.Role) {
		return errors.New("permission denied")
	}

	return nil
}

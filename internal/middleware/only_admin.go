package middleware

import (
	"context"

	"github.com/impact-lab/backend/internal/common"
	"github.com/impact-lab/backend/internal/entity"
	"github.com/impact-lab/backend/internal/repository"
	"github.com/impact-lab/backend/pkg/errorx"
	"github.com/impact-lab/backend/pkg/router"
	"github.com/impact-lab/backend/pkg/xcontext"
)

// OnlyAdmin stops requests of users who are not global admins before they
// reach the admin endpoints. The domains check the role again.
type OnlyAdmin struct {
	globalRoleVerifier *common.GlobalRoleVerifier
}

func NewOnlyAdmin(userRepo repository.UserRepository) *OnlyAdmin {
	return &OnlyAdmin{
		globalRoleVerifier: common.NewGlobalRoleVerifier(userRepo),
	}
}

func (a *OnlyAdmin) Middleware() router.MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		if err := a.globalRoleVerifier.Verify(ctx, entity.GlobalAdminRoles...); err != nil {
			xcontext.Logger(ctx).Debugf("User %s is not admin: %v", xcontext.RequestUserID(ctx), err)
			return nil, errorx.New(errorx.PermissionDenied, "Permission denied")
		}

		return nil, nil
	}
}

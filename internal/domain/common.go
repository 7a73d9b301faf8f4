package domain

import (
	"context"
	"strconv"

	"github.com/impact-lab/backend/internal/common"
	"github.com/impact-lab/backend/internal/domain/lifecycle"
	"github.com/impact-lab/backend/internal/entity"
	"github.com/impact-lab/backend/pkg/errorx"
	"github.com/impact-lab/backend/pkg/xcontext"
)

// checkLimit returns the limit to use for a paged list request.
func checkLimit(ctx context.Context, offset, limit int) (int, error) {
	apiCfg := xcontext.Configs(ctx).ApiServer
	if offset < 0 {
		return 0, errorx.New(errorx.BadRequest, "Offset must not be negative")
	}

	if limit == 0 {
		limit = apiCfg.DefaultLimit
	}

	if limit < 0 {
		return 0, errorx.New(errorx.BadRequest, "Limit must be positive")
	}

	if limit > apiCfg.MaxLimit {
		return 0, errorx.New(errorx.BadRequest, "Exceed the maximum of limit (%d)", apiCfg.MaxLimit)
	}

	return limit, nil
}

func verifyAdmin(ctx context.Context, verifier *common.GlobalRoleVerifier) error {
	if err := verifier.Verify(ctx, entity.GlobalAdminRoles...); err != nil {
		xcontext.Logger(ctx).Debugf("Permission denied: %v", err)
		return errorx.New(errorx.PermissionDenied, "Permission denied")
	}

	return nil
}

func countTransition(from, to lifecycle.State) {
	common.IncCounter(common.AchievementTransitionTotal, from.Kind.String(), to.Kind.String())
}

func parseNotificationIDs(ids []string) ([]int64, error) {
	result := make([]int64, 0, len(ids))
	for _, id := range ids {
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return nil, errorx.New(errorx.BadRequest, "Invalid notification id %q", id)
		}

		result = append(result, n)
	}

	return result, nil
}

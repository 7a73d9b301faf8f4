package middleware

import (
	"context"
	"fmt"

	"github.com/impact-lab/backend/pkg/errorx"
	"github.com/impact-lab/backend/pkg/router"
	"github.com/impact-lab/backend/pkg/xcontext"
)

func Logger() router.CloserFunc {
	return func(ctx context.Context) {
		req := xcontext.HTTPRequest(ctx)
		if req == nil {
			return
		}

		info := fmt.Sprintf("%s | %s", req.Method, req.URL.Path)
		if userID := xcontext.RequestUserID(ctx); userID != "" {
			info = fmt.Sprintf("%s | %s", info, userID)
		}

		if err := xcontext.Error(ctx); err != nil {
			code := errorx.CodeOf(err)
			if code == errorx.Unknown.Code {
				xcontext.Logger(ctx).Errorf("%s | %d", info, code)
			} else {
				xcontext.Logger(ctx).Warnf("%s | %d", info, code)
			}
		} else {
			xcontext.Logger(ctx).Infof(info)
		}
	}
}

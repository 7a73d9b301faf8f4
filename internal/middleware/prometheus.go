package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/impact-lab/backend/internal/common"
	"github.com/impact-lab/backend/pkg/errorx"
	"github.com/impact-lab/backend/pkg/router"
	"github.com/impact-lab/backend/pkg/xcontext"
)

func WithStartTime() router.MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		return xcontext.WithStartTime(ctx, time.Now()), nil
	}
}

// Prometheus records the request count and duration labelled by path and
// errorx code, 0 means success.
func Prometheus() router.CloserFunc {
	return func(ctx context.Context) {
		req := xcontext.HTTPRequest(ctx)
		if req == nil {
			return
		}

		code := "0"
		if err := xcontext.Error(ctx); err != nil {
			code = strconv.Itoa(int(errorx.CodeOf(err)))
		}

		path := req.URL.Path
		common.IncCounter(common.HTTPRequestTotal, path, code)

		startTime := xcontext.StartTime(ctx)
		if startTime.IsZero() {
			return
		}

		if histogram, ok := common.PromHistograms[common.HTTPRequestDurationSeconds]; ok {
			histogram.WithLabelValues(path, code).Observe(time.Since(startTime).Seconds())
		}
	}
}

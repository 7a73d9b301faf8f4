package router

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/impact-lab/backend/pkg/errorx"
	"github.com/impact-lab/backend/pkg/xcontext"
)

func (r *Router) prepare(c *gin.Context) (context.Context, error) {
	ctx := xcontext.WithHTTPRequest(r.baseCtx, c.Request)
	for _, before := range r.befores {
		newCtx, err := before(ctx)
		if err != nil {
			return ctx, err
		}

		if newCtx != nil {
			ctx = newCtx
		}
	}

	return ctx, nil
}

func wrapHandler[Request, Response any](
	r *Router,
	method string,
	handler HandlerFunc[Request, Response],
) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, err := r.prepare(c)
		if err != nil {
			r.finish(c, ctx, nil, err)
			return
		}

		var req Request
		if err := bind(c, method, &req); err != nil {
			xcontext.Logger(ctx).Debugf("Cannot bind the request: %v", err)
			r.finish(c, ctx, nil, errorx.New(errorx.BadRequest, "Invalid request"))
			return
		}

		resp, err := handler(ctx, &req)
		r.finish(c, ctx, resp, err)
	}
}

func bind(c *gin.Context, method string, req any) error {
	if method == "GET" {
		return c.ShouldBindQuery(req)
	}

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		return c.ShouldBind(req)
	}

	if c.Request.ContentLength == 0 {
		return nil
	}

	return c.ShouldBindJSON(req)
}

func (r *Router) finish(c *gin.Context, ctx context.Context, resp any, err error) {
	if err != nil {
		ctx = xcontext.WithError(ctx, err)
	}

	writeResponse(c, ctx, resp, err)

	for _, closer := range r.closers {
		closer(ctx)
	}
}

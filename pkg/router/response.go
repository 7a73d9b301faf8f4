package router

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/impact-lab/backend/pkg/errorx"
	"github.com/impact-lab/backend/pkg/xcontext"
)

type response struct {
	Code  int64  `json:"code"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

func newErrorResponse(err error) response {
	var partial *errorx.PartialError
	if errors.As(err, &partial) {
		return response{
			Code:  int64(errorx.PartialApplication),
			Error: partial.Error(),
			Data: gin.H{
				"completed": partial.Completed,
				"pending":   partial.Pending,
				"intent_id": partial.IntentID,
			},
		}
	}

	errx := errorx.Error{}
	if errors.As(err, &errx) {
		return response{
			Code:  int64(errx.Code),
			Error: errx.Message,
		}
	}

	return response{
		Code:  int64(errorx.Unknown.Code),
		Error: errorx.Unknown.Message,
	}
}

func httpStatus(code errorx.Code) int {
	switch code {
	case errorx.BadRequest:
		return http.StatusBadRequest
	case errorx.Unauthenticated:
		return http.StatusUnauthorized
	case errorx.PermissionDenied:
		return http.StatusForbidden
	case errorx.NotFound:
		return http.StatusNotFound
	case errorx.AlreadyExists, errorx.InvalidStateTransition, errorx.PartialApplication:
		return http.StatusConflict
	case errorx.TooManyRequests:
		return http.StatusTooManyRequests
	case errorx.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeResponse(c *gin.Context, ctx context.Context, data any, err error) {
	if err != nil {
		resp := newErrorResponse(err)
		if resp.Code == int64(errorx.Unknown.Code) {
			xcontext.Logger(ctx).Errorf("Request %s failed: %v", c.Request.URL.Path, err)
		}

		c.JSON(httpStatus(errorx.Code(resp.Code)), resp)
		return
	}

	c.JSON(http.StatusOK, response{Code: 0, Data: data})
}

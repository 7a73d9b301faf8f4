package middleware

import (
	"context"
	"strings"

	"github.com/impact-lab/backend/internal/model"
	"github.com/impact-lab/backend/pkg/errorx"
	"github.com/impact-lab/backend/pkg/jwt"
	"github.com/impact-lab/backend/pkg/router"
	"github.com/impact-lab/backend/pkg/xcontext"
)

type AuthVerifier struct {
	tokenEngine *jwt.Engine[model.AccessToken]
	optional    bool
}

func NewAuthVerifier(tokenEngine *jwt.Engine[model.AccessToken]) *AuthVerifier {
	return &AuthVerifier{tokenEngine: tokenEngine}
}

// Optional lets requests without a token through, the request user id stays
// empty.
func (a *AuthVerifier) Optional() *AuthVerifier {
	return &AuthVerifier{tokenEngine: a.tokenEngine, optional: true}
}

func (a *AuthVerifier) Middleware() router.MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		token := accessToken(ctx)
		if token == "" {
			if a.optional {
				return nil, nil
			}

			return nil, errorx.New(errorx.Unauthenticated, "You need to authenticate before")
		}

		info, err := a.tokenEngine.Verify(token)
		if err != nil {
			xcontext.Logger(ctx).Debugf("Cannot verify access token: %v", err)
			return nil, errorx.New(errorx.Unauthenticated, "Invalid access token")
		}

		if info.ID == "" {
			return nil, errorx.New(errorx.Unauthenticated, "Invalid access token")
		}

		return xcontext.WithRequestUserID(ctx, info.ID), nil
	}
}

// accessToken reads the bearer token, or the access token cookie for browser
// clients such as the websocket.
func accessToken(ctx context.Context) string {
	req := xcontext.HTTPRequest(ctx)
	if req == nil {
		return ""
	}

	auth, token, found := strings.Cut(req.Header.Get("Authorization"), " ")
	if found {
		if auth == "Bearer" {
			return token
		}
		return ""
	}

	cookie, err := req.Cookie(xcontext.Configs(ctx).Auth.AccessToken.Name)
	if err != nil {
		return ""
	}

	return cookie.Value
}

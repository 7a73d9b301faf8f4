package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

type HandlerFunc[Request, Response any] func(ctx context.Context, req *Request) (*Response, error)

// MiddlewareFunc runs before the handler. A non-nil returned context replaces
// the current one, a non-nil error stops the request.
type MiddlewareFunc func(ctx context.Context) (context.Context, error)

// CloserFunc runs after the response has been written.
type CloserFunc func(ctx context.Context)

type Router struct {
	inner   gin.IRouter
	engine  *gin.Engine
	baseCtx context.Context

	befores []MiddlewareFunc
	closers []CloserFunc
}

// New creates the root router. Every request context inherits the values of
// ctx (database, configs, logger).
func New(ctx context.Context) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Router{
		inner:   engine,
		engine:  engine,
		baseCtx: ctx,
	}
}

// Branch returns a router which shares the routes of r but has its own copy
// of middlewares.
func (r *Router) Branch() *Router {
	return &Router{
		inner:   r.inner,
		engine:  r.engine,
		baseCtx: r.baseCtx,
		befores: append([]MiddlewareFunc{}, r.befores...),
		closers: append([]CloserFunc{}, r.closers...),
	}
}

func (r *Router) Before(m MiddlewareFunc) {
	r.befores = append(r.befores, m)
}

func (r *Router) AddCloser(c CloserFunc) {
	r.closers = append(r.closers, c)
}

func (r *Router) Handler() http.Handler {
	return r.engine
}

// Raw registers a plain gin handler, it is used for endpoints which don't
// speak the JSON envelope, such as websockets and metrics.
func (r *Router) Raw(method, pattern string, handler func(ctx context.Context, c *gin.Context)) {
	r.inner.Handle(method, pattern, func(c *gin.Context) {
		ctx, err := r.prepare(c)
		if err != nil {
			writeResponse(c, ctx, nil, err)
			return
		}

		handler(ctx, c)
	})
}

func GET[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.inner.GET(pattern, wrapHandler(r, http.MethodGet, handler))
}

func POST[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.inner.POST(pattern, wrapHandler(r, http.MethodPost, handler))
}

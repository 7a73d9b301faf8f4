package xcontext

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/impact-lab/backend/config"
	"github.com/impact-lab/backend/pkg/logger"
	"gorm.io/gorm"
)

type (
	dbKey            struct{}
	dbTxKey          struct{}
	loggerKey        struct{}
	configsKey       struct{}
	requestUserIDKey struct{}
	httpRequestKey   struct{}
	startTimeKey     struct{}
	errorKey         struct{}
	snowflakeKey     struct{}
)

func WithDB(ctx context.Context, db *gorm.DB) context.Context {
	return context.WithValue(ctx, dbKey{}, db)
}

type dbTransaction struct {
	tx    *gorm.DB
	owner bool
	done  bool
}

// DB returns the current transaction if one was opened by WithDBTransaction,
// otherwise the plain database handle.
func DB(ctx context.Context) *gorm.DB {
	if t, ok := ctx.Value(dbTxKey{}).(*dbTransaction); ok && !t.done {
		return t.tx.WithContext(ctx)
	}

	db, ok := ctx.Value(dbKey{}).(*gorm.DB)
	if !ok {
		return nil
	}

	return db.WithContext(ctx)
}

// WithDBTransaction begins a transaction. A nested call joins the outer
// transaction and its commit or rollback is left to the outer owner.
func WithDBTransaction(ctx context.Context) context.Context {
	if t, ok := ctx.Value(dbTxKey{}).(*dbTransaction); ok && !t.done {
		return context.WithValue(ctx, dbTxKey{}, &dbTransaction{tx: t.tx, owner: false})
	}

	return context.WithValue(ctx, dbTxKey{}, &dbTransaction{tx: DB(ctx).Begin(), owner: true})
}

func WithCommitDBTransaction(ctx context.Context) error {
	t, ok := ctx.Value(dbTxKey{}).(*dbTransaction)
	if !ok || t.done || !t.owner {
		return nil
	}

	t.done = true
	return t.tx.Commit().Error
}

// WithRollbackDBTransaction is safe to defer, it has no effect once the
// transaction has been committed.
func WithRollbackDBTransaction(ctx context.Context) {
	t, ok := ctx.Value(dbTxKey{}).(*dbTransaction)
	if !ok || t.done || !t.owner {
		return
	}

	t.done = true
	t.tx.Rollback()
}

func WithLogger(ctx context.Context, logger logger.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

func Logger(ctx context.Context) logger.Logger {
	l, ok := ctx.Value(loggerKey{}).(logger.Logger)
	if !ok {
		return logger.NewNopLogger()
	}

	return l
}

func WithConfigs(ctx context.Context, cfg config.Configs) context.Context {
	return context.WithValue(ctx, configsKey{}, cfg)
}

func Configs(ctx context.Context) config.Configs {
	cfg, _ := ctx.Value(configsKey{}).(config.Configs)
	return cfg
}

func WithRequestUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, requestUserIDKey{}, userID)
}

func RequestUserID(ctx context.Context) string {
	id, _ := ctx.Value(requestUserIDKey{}).(string)
	return id
}

func WithHTTPRequest(ctx context.Context, req *http.Request) context.Context {
	return context.WithValue(ctx, httpRequestKey{}, req)
}

func HTTPRequest(ctx context.Context) *http.Request {
	req, _ := ctx.Value(httpRequestKey{}).(*http.Request)
	return req
}

func WithStartTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, startTimeKey{}, t)
}

func StartTime(ctx context.Context) time.Time {
	t, _ := ctx.Value(startTimeKey{}).(time.Time)
	return t
}

func WithError(ctx context.Context, err error) context.Context {
	return context.WithValue(ctx, errorKey{}, err)
}

func Error(ctx context.Context) error {
	err, _ := ctx.Value(errorKey{}).(error)
	return err
}

func WithSnowFlakeNode(ctx context.Context, node *snowflake.Node) context.Context {
	return context.WithValue(ctx, snowflakeKey{}, node)
}

func SnowFlakeNode(ctx context.Context) *snowflake.Node {
	node, _ := ctx.Value(snowflakeKey{}).(*snowflake.Node)
	return node
}

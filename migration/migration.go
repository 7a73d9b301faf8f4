package migration

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/impact-lab/backend/internal/entity"
	"github.com/impact-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed mysql/*.sql
var mysqlFS embed.FS

// Migrators are data migrations run on demand by version, each at most once.
var Migrators = map[string]func(context.Context) error{
	"0001": migrate0001,
}

// Migrate brings the schema to the latest version. Mysql runs the embedded SQL
// migrations, other drivers are migrated from the entities.
func Migrate(ctx context.Context) error {
	if xcontext.Configs(ctx).Database.Driver != "mysql" {
		return entity.MigrateTable(ctx)
	}

	db, err := xcontext.DB(ctx).DB()
	if err != nil {
		return err
	}

	source, err := iofs.New(mysqlFS, "mysql")
	if err != nil {
		return err
	}

	driver, err := migratemysql.WithInstance(db, &migratemysql.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithInstance("iofs", source, xcontext.Configs(ctx).Database.Database, driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return nil
}

// Run applies the migrator of version and records it. It returns false if
// the version has been applied before.
func Run(ctx context.Context, version string) (bool, error) {
	migrator, ok := Migrators[version]
	if !ok {
		return false, fmt.Errorf("not found version %s", version)
	}

	err := xcontext.DB(ctx).Take(&entity.Migration{}, "version=?", version).Error
	if err == nil {
		return false, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := migrator(ctx); err != nil {
		return false, err
	}

	err = xcontext.DB(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entity.Migration{Version: version}).Error
	if err != nil {
		return false, err
	}

	if err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		return false, err
	}

	return true, nil
}

package main

import (
	"github.com/impact-lab/backend/migration"
	"github.com/impact-lab/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startMigrate(cctx *cli.Context) error {
	s.loadDatabase()
	s.migrateDB()

	version := cctx.String("version")
	if version == "" {
		return nil
	}

	applied, err := migration.Run(s.ctx, version)
	if err != nil {
		return err
	}

	if !applied {
		xcontext.Logger(s.ctx).Infof("Version %s has been applied before", version)
		return nil
	}

	xcontext.Logger(s.ctx).Infof("Applied version %s", version)
	return nil
}

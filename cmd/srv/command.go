package main

import "github.com/urfave/cli/v2"

func (s *srv) loadApp() {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to the TOML config file",
		EnvVars: []string{"CONFIG_FILE"},
	}

	s.app = cli.NewApp()
	s.app.Action = cli.ShowAppHelp
	s.app.Name = "impact"
	s.app.Usage = "Achievement verification and reward service"
	s.app.Flags = []cli.Flag{configFlag}
	s.app.Before = s.loadConfig
	s.app.Commands = []*cli.Command{
		{
			Action:      s.startApi,
			Name:        "api",
			Usage:       "Start service api",
			Category:    "Api",
			Description: `Serve the HTTP api and the notification websocket.`,
		},
		{
			Action:      s.startNotifier,
			Name:        "notifier",
			Usage:       "Start the notification subscriber",
			Category:    "Worker",
			Description: `Persist and push the notifications published to kafka by the api.`,
		},
		{
			Action:      s.startCron,
			Name:        "cron",
			Usage:       "Start cron jobs",
			Category:    "Worker",
			Description: `Reconcile partially applied rewards and refresh the leaderboard.`,
		},
		{
			Action: s.startMigrate,
			Name:   "migrate",
			Usage:  "Migrate the database",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "version",
					Usage: "Run a data migration of this version after the schema migration",
				},
			},
			Category: "Tool",
		},
		{
			Action: s.startToken,
			Name:   "token",
			Usage:  "Generate an access token",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "user",
					Usage:    "Id of the user",
					Required: true,
				},
			},
			Category: "Tool",
		},
	}
}

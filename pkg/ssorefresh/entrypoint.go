package ssorefresh

import (
	"fmt"

	"github.com/common-fate/clio"
	"github.com/urfave/cli/v2"

	"github.com/common-fate/ssorefresh/internal/build"
	"github.com/common-fate/ssorefresh/pkg/config"
)

func GetCliApp() *cli.App {
	cli.VersionPrinter = func(c *cli.Context) {
		clio.Log(fmt.Sprintf("%s %s (%s, built %s by %s)", build.BinaryName(), build.Version, build.Commit, build.Date, build.BuiltBy))
	}

	flags := []cli.Flag{
		&cli.BoolFlag{Name: "verbose", Usage: "Log debug messages"},
		&cli.BoolFlag{Name: "no-login", Usage: "Fail instead of running the login command when the sso cache can't be used"},
		&cli.DurationFlag{Name: "settle-delay", Usage: "How long to wait after logging in before reading the sso cache again"},
		&cli.StringFlag{Name: "sso-cache-dir", Usage: "The AWS CLI sso cache directory, defaults to ~/.aws/sso/cache"},
		&cli.StringFlag{Name: "default-region", Aliases: []string{"r"}, Usage: "The region to write when the profile has none, e.g. 'us-east-1' or 'ue1'"},
	}

	app := &cli.App{
		Flags:       flags,
		Name:        build.BinaryName(),
		Usage:       "Refresh AWS credentials from a cached AWS SSO login",
		UsageText:   build.BinaryName() + " [global options] [profile]",
		Version:     build.Version,
		HideVersion: false,
		Action:      RefreshAction,
		Commands: []*cli.Command{
			&ListCommand,
			&SettingsCommand,
		},
		EnableBashCompletion: true,
		Before: func(c *cli.Context) error {
			clio.SetLevelFromEnv("SSOREFRESH_LOG")
			if c.Bool("verbose") {
				clio.SetLevelFromString("debug")
			}
			if err := config.SetupConfigFolder(); err != nil {
				return err
			}
			return nil
		},
	}

	return app
}

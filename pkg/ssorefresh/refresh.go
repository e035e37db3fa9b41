package ssorefresh

import (
	"fmt"
	"os"
	"time"

	"github.com/common-fate/clio"
	"github.com/common-fate/clio/clierr"
	"github.com/hako/durafmt"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/common-fate/ssorefresh/internal/build"
	"github.com/common-fate/ssorefresh/pkg/cfaws"
	"github.com/common-fate/ssorefresh/pkg/config"
	"github.com/common-fate/ssorefresh/pkg/login"
	"github.com/common-fate/ssorefresh/pkg/refresh"
	"github.com/common-fate/ssorefresh/pkg/selector"
	"github.com/common-fate/ssorefresh/pkg/testable"
)

// RefreshAction refreshes the profile given as the first argument, or asks for one.
func RefreshAction(c *cli.Context) error {
	if c.NArg() > 1 {
		return clierr.New(fmt.Sprintf("expected at most one profile, got %d arguments", c.NArg()), clierr.Infof("Usage: %s", c.App.UsageText))
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, err := newStore(c, cfg)
	if err != nil {
		return err
	}

	cacheDir, err := ssoCacheDir(c, cfg)
	if err != nil {
		return err
	}

	delay, err := cfg.SettleDelayDuration()
	if err != nil {
		return err
	}
	if c.IsSet("settle-delay") {
		delay = c.Duration("settle-delay")
	}

	profileName := c.Args().First()
	if profileName == "" {
		profiles, err := store.SSOProfiles()
		if err != nil {
			return err
		}
		s := selector.Selector{}
		p, err := s.Select(profiles)
		if errors.Is(err, selector.ErrNoProfiles) {
			return clierr.New(err.Error(), clierr.Infof("Add a profile with sso_start_url or sso_session to %s, for example by running 'aws configure sso'", store.Config.Path()))
		}
		if err != nil {
			return err
		}
		profileName = p.Name
	}

	r := refresh.Refresher{
		Profiles:    store,
		Cache:       &cfaws.CacheScanner{Dir: cacheDir},
		Exchanger:   &cfaws.Exchanger{},
		Writer:      cfaws.NewCredentialsFile(),
		Login:       login.NewRunner(cfg),
		SettleDelay: delay,
		NoLogin:     c.Bool("no-login"),
		Spinner:     selector.IsTerminal(os.Stderr.Fd()),
	}

	res, err := r.Refresh(c.Context, profileName)
	if err != nil {
		return cliError(profileName, store.Config.Path(), err)
	}

	testable.Outputs("profile", res.Profile.Name, "region", res.Profile.Region)
	if res.Credentials.CanExpire {
		clio.Infof("Credentials for %s expire in %s", res.Profile.Name, durafmt.Parse(time.Until(res.Credentials.Expires)).LimitFirstN(1).String())
	}
	return nil
}

// newStore returns a store for the aws config file which uses the default region from
// the command line or settings.
func newStore(c *cli.Context, cfg *config.Config) (*cfaws.Store, error) {
	store := cfaws.NewStore()

	region := cfg.DefaultRegion
	if c.IsSet("default-region") {
		region = c.String("default-region")
	}
	if region != "" {
		expanded, err := cfaws.ExpandRegion(region)
		if err != nil {
			return nil, clierr.New(fmt.Sprintf("%s is not a valid region", region), clierr.Error(err), clierr.Info("Use a full region such as 'us-east-1' or a short form such as 'ue1'"))
		}
		store.DefaultRegion = expanded
	}
	return store, nil
}

func ssoCacheDir(c *cli.Context, cfg *config.Config) (string, error) {
	if dir := c.String("sso-cache-dir"); dir != "" {
		return dir, nil
	}
	if cfg.SSOCacheDir != "" {
		return cfg.SSOCacheDir, nil
	}
	return cfaws.DefaultSSOCacheDir()
}

// cliError adds hints to the errors a refresh can fail with.
func cliError(profile string, configPath string, err error) error {
	switch {
	case errors.Is(err, cfaws.ErrSessionNotFound):
		return clierr.New(fmt.Sprintf("The sso-session for profile %s was not found", profile), clierr.Error(err), clierr.Infof("Check the sso_session key of the profile and the [sso-session] sections in %s", configPath))
	case errors.Is(err, cfaws.ErrProfileNotFound):
		return clierr.New(fmt.Sprintf("Profile %s was not found in %s", profile, configPath), clierr.Infof("Run '%s list' to see the profiles which can be refreshed", build.BinaryName()))
	case errors.Is(err, cfaws.ErrNotSSOProfile):
		return clierr.New(fmt.Sprintf("Profile %s is not configured for AWS SSO", profile), clierr.Error(err), clierr.Info("Profiles need sso_start_url, sso_region, sso_account_id and sso_role_name, either directly or through an sso_session"))
	case errors.Is(err, refresh.ErrLoginRequired):
		return clierr.New(fmt.Sprintf("There is no usable sso login cached for %s", profile), clierr.Error(err), clierr.Infof("Log in with 'aws sso login --profile %s' or run %s without --no-login", profile, build.BinaryName()))
	case errors.Is(err, refresh.ErrLoginFailed):
		return clierr.New(fmt.Sprintf("Logging in for %s failed", profile), clierr.Error(err), clierr.Infof("Check the LoginCommand setting with '%s settings'", build.BinaryName()))
	case errors.Is(err, refresh.ErrRefreshFailed):
		return clierr.New(fmt.Sprintf("Logged in, but credentials for %s could not be refreshed", profile), clierr.Error(err), clierr.Info("Check that the sso_start_url and sso_region of the profile match the ones used to log in"))
	}
	return err
}

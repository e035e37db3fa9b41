// Package refresh exchanges a cached sso login for role credentials and writes them
// to the shared credentials file, logging in and retrying once if the cache can't be used.
package refresh

import (
	"context"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/briandowns/spinner"
	"github.com/common-fate/clio"
	"github.com/sethvargo/go-retry"

	"github.com/common-fate/ssorefresh/pkg/cfaws"
	"github.com/common-fate/ssorefresh/pkg/config"
)

type ProfileLoader interface {
	LoadProfile(name string) (*cfaws.Profile, error)
}

type LoginFinder interface {
	FindValidLogin(profile *cfaws.Profile) (*cfaws.CachedLogin, error)
}

type CredentialExchanger interface {
	Exchange(ctx context.Context, profile *cfaws.Profile, login *cfaws.CachedLogin) (aws.Credentials, error)
}

type CredentialWriter interface {
	Write(profileName string, region string, creds aws.Credentials) error
}

// LoginRunner signs the user in for a profile, blocking until it is done.
type LoginRunner interface {
	Login(ctx context.Context, profile string) error
}

type Refresher struct {
	Profiles  ProfileLoader
	Cache     LoginFinder
	Exchanger CredentialExchanger
	Writer    CredentialWriter
	// Login runs the interactive sso login. A nil Login behaves like NoLogin.
	Login LoginRunner

	// SettleDelay is waited after logging in so the login command's cache write lands
	// before the cache is read again. Defaults to config.DefaultSettleDelay.
	SettleDelay time.Duration
	// NoLogin returns ErrLoginRequired instead of running the login command.
	NoLogin bool
	// Spinner shows progress on stderr during the exchange.
	Spinner bool
}

type Result struct {
	Profile *cfaws.Profile
	// Login is the cached sso login the credentials were exchanged for
	Login       *cfaws.CachedLogin
	Credentials aws.Credentials
	// LoggedIn is true if the login command was run
	LoggedIn bool
}

// Refresh writes fresh role credentials for the named profile.
//
// The cached login is tried first. If there isn't a usable one, or the exchange fails,
// the login command is run and the cache is tried exactly once more.
func (r *Refresher) Refresh(ctx context.Context, profileName string) (*Result, error) {
	profile, err := r.Profiles.LoadProfile(profileName)
	if err != nil {
		return nil, err
	}
	clio.Infof("Refreshing credentials for %s (account %s, role %s)", profile.Name, profile.SSOAccountID, profile.SSORoleName)

	res := &Result{Profile: profile}

	delay := r.SettleDelay
	if delay <= 0 {
		delay = config.DefaultSettleDelay
	}
	b := retry.WithMaxRetries(1, retry.NewConstant(delay))

	attempt := 0
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		login, creds, err := r.fastPath(ctx, profile)
		if err == nil {
			res.Login = login
			res.Credentials = creds
			return nil
		}
		if attempt > 1 {
			return &Error{Kind: ErrRefreshFailed, Profile: profile.Name, Err: err}
		}

		clio.Debugw("cached sso login could not be used", "profile", profile.Name, "error", err)
		if r.NoLogin || r.Login == nil {
			return &Error{Kind: ErrLoginRequired, Profile: profile.Name, Err: err}
		}

		clio.Infof("Logging in to %s", profile.SSOStartURL)
		if err := r.Login.Login(ctx, profile.Name); err != nil {
			return &Error{Kind: ErrLoginFailed, Profile: profile.Name, Err: err}
		}
		res.LoggedIn = true
		clio.Debugf("login succeeded, waiting %s for the sso cache", delay)
		return retry.RetryableError(err)
	})
	if err != nil {
		return nil, err
	}

	clio.Successf("Wrote credentials for %s", profile.Name)
	return res, nil
}

// fastPath finds a cached login, exchanges it and writes the credentials.
func (r *Refresher) fastPath(ctx context.Context, profile *cfaws.Profile) (*cfaws.CachedLogin, aws.Credentials, error) {
	login, err := r.Cache.FindValidLogin(profile)
	if err != nil {
		return nil, aws.Credentials{}, err
	}

	if r.Spinner {
		si := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		si.Suffix = " exchanging sso token for role credentials..."
		si.Writer = os.Stderr
		si.Start()
		defer si.Stop()
	}

	creds, err := r.Exchanger.Exchange(ctx, profile, login)
	if err != nil {
		return nil, aws.Credentials{}, err
	}
	if err := r.Writer.Write(profile.Name, profile.Region, creds); err != nil {
		return nil, aws.Credentials{}, err
	}
	return login, creds, nil
}

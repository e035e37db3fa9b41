package cfaws

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sso"
	ssotypes "github.com/aws/aws-sdk-go-v2/service/sso/types"
	"github.com/aws/smithy-go"
	"github.com/common-fate/clio"
	"github.com/pkg/errors"
)

var ErrExchange error = errors.New("sso role credential exchange failed")

// ExchangeError is returned for any failure to exchange an sso access token for role credentials,
// whether the token was rejected, the request failed or the response was malformed.
type ExchangeError struct {
	Profile string
	Err     error
}

func (e *ExchangeError) Error() string {
	return "exchanging sso token for role credentials for " + e.Profile + ": " + e.Err.Error()
}

func (e *ExchangeError) Unwrap() error { return e.Err }

func (e *ExchangeError) Is(target error) bool { return target == ErrExchange }

// SSOAPI is the part of the sso client used to exchange tokens.
type SSOAPI interface {
	GetRoleCredentials(ctx context.Context, params *sso.GetRoleCredentialsInput, optFns ...func(*sso.Options)) (*sso.GetRoleCredentialsOutput, error)
}

// Exchanger calls sso:GetRoleCredentials in the profile's sso region.
type Exchanger struct {
	// NewClient returns a client for the region. Defaults to an sso client without credentials,
	// GetRoleCredentials is authorised by the access token alone.
	NewClient func(region string) SSOAPI
}

func newSSOClient(region string) SSOAPI {
	cfg := aws.NewConfig()
	cfg.Region = region
	return sso.NewFromConfig(*cfg)
}

// Exchange returns role credentials for the profile's account and role using the cached login.
func (e *Exchanger) Exchange(ctx context.Context, profile *Profile, login *CachedLogin) (aws.Credentials, error) {
	newClient := e.NewClient
	if newClient == nil {
		newClient = newSSOClient
	}
	ssoClient := newClient(profile.SSORegion)

	res, err := ssoClient.GetRoleCredentials(ctx, &sso.GetRoleCredentialsInput{
		AccessToken: aws.String(login.AccessToken),
		AccountId:   aws.String(profile.SSOAccountID),
		RoleName:    aws.String(profile.SSORoleName),
	})
	if err != nil {
		var unauthorised *ssotypes.UnauthorizedException
		if errors.As(err, &unauthorised) {
			clio.Debugw("sso access token was rejected", "profile", profile.Name, "cache", login.Path)
		}
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			clio.Debugw("sso api error", "code", apiErr.ErrorCode(), "message", apiErr.ErrorMessage())
		}
		return aws.Credentials{}, &ExchangeError{Profile: profile.Name, Err: err}
	}
	if res == nil || res.RoleCredentials == nil {
		return aws.Credentials{}, &ExchangeError{Profile: profile.Name, Err: errors.New("response did not include role credentials")}
	}
	rc := res.RoleCredentials
	if aws.ToString(rc.AccessKeyId) == "" || aws.ToString(rc.SecretAccessKey) == "" || aws.ToString(rc.SessionToken) == "" {
		return aws.Credentials{}, &ExchangeError{Profile: profile.Name, Err: errors.New("response included incomplete role credentials")}
	}
	return TypeRoleCredsToAwsCreds(*rc), nil
}

func TypeRoleCredsToAwsCreds(c ssotypes.RoleCredentials) aws.Credentials {
	return aws.Credentials{
		AccessKeyID:     aws.ToString(c.AccessKeyId),
		SecretAccessKey: aws.ToString(c.SecretAccessKey),
		SessionToken:    aws.ToString(c.SessionToken),
		CanExpire:       c.Expiration != 0,
		Expires:         time.UnixMilli(c.Expiration),
	}
}

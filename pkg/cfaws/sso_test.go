package cfaws

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sso"
	ssotypes "github.com/aws/aws-sdk-go-v2/service/sso/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSSO struct {
	region string
	input  *sso.GetRoleCredentialsInput
	output *sso.GetRoleCredentialsOutput
	err    error
}

func (m *mockSSO) GetRoleCredentials(ctx context.Context, params *sso.GetRoleCredentialsInput, optFns ...func(*sso.Options)) (*sso.GetRoleCredentialsOutput, error) {
	m.input = params
	return m.output, m.err
}

func TestExchange(t *testing.T) {
	expiry := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)
	m := &mockSSO{
		output: &sso.GetRoleCredentialsOutput{
			RoleCredentials: &ssotypes.RoleCredentials{
				AccessKeyId:     aws.String("ASIAEXAMPLE"),
				SecretAccessKey: aws.String("secret"),
				SessionToken:    aws.String("token"),
				Expiration:      expiry.UnixMilli(),
			},
		},
	}
	e := &Exchanger{NewClient: func(region string) SSOAPI {
		m.region = region
		return m
	}}
	login := &CachedLogin{StartURL: testProfile.SSOStartURL, Region: testProfile.SSORegion, AccessToken: "access-token"}

	got, err := e.Exchange(context.Background(), testProfile, login)
	require.NoError(t, err)

	assert.Equal(t, "us-west-2", m.region)
	assert.Equal(t, "access-token", aws.ToString(m.input.AccessToken))
	assert.Equal(t, "123456789012", aws.ToString(m.input.AccountId))
	assert.Equal(t, "Developer", aws.ToString(m.input.RoleName))

	assert.Equal(t, "ASIAEXAMPLE", got.AccessKeyID)
	assert.Equal(t, "secret", got.SecretAccessKey)
	assert.Equal(t, "token", got.SessionToken)
	assert.True(t, got.CanExpire)
	assert.True(t, expiry.Equal(got.Expires))
}

func TestExchangeErrors(t *testing.T) {
	tests := []struct {
		name   string
		output *sso.GetRoleCredentialsOutput
		err    error
	}{
		{
			name: "token rejected",
			err:  &ssotypes.UnauthorizedException{Message: aws.String("Session token not found or invalid")},
		},
		{
			name: "network failure",
			err:  errors.New("dial tcp: lookup portal.sso.us-west-2.amazonaws.com: no such host"),
		},
		{
			name:   "missing role credentials",
			output: &sso.GetRoleCredentialsOutput{},
		},
		{
			name: "incomplete role credentials",
			output: &sso.GetRoleCredentialsOutput{
				RoleCredentials: &ssotypes.RoleCredentials{AccessKeyId: aws.String("ASIAEXAMPLE")},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockSSO{output: tt.output, err: tt.err}
			e := &Exchanger{NewClient: func(string) SSOAPI { return m }}

			_, err := e.Exchange(context.Background(), testProfile, &CachedLogin{AccessToken: "token"})
			assert.ErrorIs(t, err, ErrExchange)

			var exchangeErr *ExchangeError
			require.ErrorAs(t, err, &exchangeErr)
			assert.Equal(t, "dev", exchangeErr.Profile)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

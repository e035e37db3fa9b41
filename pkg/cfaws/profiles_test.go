package cfaws

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/ini.v1"
)

type loader struct {
	fileString string
}

func (l loader) Path() string { return "" }
func (l loader) Load() (*ini.File, error) {
	testConfigFile, err := ini.LoadSources(LoadOptions(true), []byte(l.fileString))
	if err != nil {
		return nil, err
	}
	return testConfigFile, nil
}

type nooploader struct {
}

func (l nooploader) Path() string { return "" }
func (l nooploader) Load() (*ini.File, error) {
	return ini.Empty(LoadOptions(true)), nil
}

const testConfig = `
[profile dev]
sso_session = dev-sso
sso_account_id = 123456789012
sso_role_name = Developer

[sso-session dev-sso]
sso_start_url = https://x.awsapps.com/start
sso_region = us-west-2

[profile prod]
sso_session = dev-sso
sso_account_id = 210987654321
sso_role_name = Admin
region = eu-west-1
sso_region = ap-southeast-2

[profile session-region]
sso_session = regional
sso_account_id = 123456789012
sso_role_name = Developer

[sso-session regional]
sso_start_url = https://y.awsapps.com/start
sso_region = eu-central-1
region = eu-central-1

[profile legacy]
sso_start_url = https://legacy.awsapps.com/start
sso_region = us-east-2
sso_account_id = 111111111111
sso_role_name = ReadOnly
region = us-east-2

[profile dangling]
sso_session = missing
sso_account_id = 123456789012
sso_role_name = Developer

[profile iam]
region = us-east-1

[default]
sso_start_url = https://default.awsapps.com/start
sso_region = us-east-1
sso_account_id = 222222222222
sso_role_name = Default
`

func TestLoadProfile(t *testing.T) {
	store := &Store{Config: loader{fileString: testConfig}}

	tests := []struct {
		name    string
		profile string
		want    Profile
		wantErr error
	}{
		{
			name:    "session values are used when the profile defines none",
			profile: "dev",
			want: Profile{
				Name:           "dev",
				SSOStartURL:    "https://x.awsapps.com/start",
				SSORegion:      "us-west-2",
				SSORoleName:    "Developer",
				SSOAccountID:   "123456789012",
				SSOSessionName: "dev-sso",
				Region:         DefaultRegion,
			},
		},
		{
			name:    "profile values win over the session",
			profile: "prod",
			want: Profile{
				Name:           "prod",
				SSOStartURL:    "https://x.awsapps.com/start",
				SSORegion:      "ap-southeast-2",
				SSORoleName:    "Admin",
				SSOAccountID:   "210987654321",
				SSOSessionName: "dev-sso",
				Region:         "eu-west-1",
			},
		},
		{
			name:    "session region is used when the profile has none",
			profile: "session-region",
			want: Profile{
				Name:           "session-region",
				SSOStartURL:    "https://y.awsapps.com/start",
				SSORegion:      "eu-central-1",
				SSORoleName:    "Developer",
				SSOAccountID:   "123456789012",
				SSOSessionName: "regional",
				Region:         "eu-central-1",
			},
		},
		{
			name:    "legacy profile without a session",
			profile: "legacy",
			want: Profile{
				Name:         "legacy",
				SSOStartURL:  "https://legacy.awsapps.com/start",
				SSORegion:    "us-east-2",
				SSORoleName:  "ReadOnly",
				SSOAccountID: "111111111111",
				Region:       "us-east-2",
			},
		},
		{
			name:    "default section",
			profile: "default",
			want: Profile{
				Name:         "default",
				SSOStartURL:  "https://default.awsapps.com/start",
				SSORegion:    "us-east-1",
				SSORoleName:  "Default",
				SSOAccountID: "222222222222",
				Region:       DefaultRegion,
			},
		},
		{
			name:    "missing profile",
			profile: "nope",
			wantErr: ErrProfileNotFound,
		},
		{
			name:    "missing session is a not found error",
			profile: "dangling",
			wantErr: ErrSessionNotFound,
		},
		{
			name:    "profile without sso configuration",
			profile: "iam",
			wantErr: ErrNotSSOProfile,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.LoadProfile(tt.profile)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			// RawConfig is checked separately
			got.RawConfig = nil
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestSessionNotFoundMatchesProfileNotFound(t *testing.T) {
	store := &Store{Config: loader{fileString: testConfig}}
	_, err := store.LoadProfile("dangling")
	assert.True(t, errors.Is(err, ErrProfileNotFound))
}

func TestLoadProfileDefaultRegionOverride(t *testing.T) {
	store := &Store{Config: loader{fileString: testConfig}, DefaultRegion: "ap-southeast-2"}
	p, err := store.LoadProfile("dev")
	require.NoError(t, err)
	assert.Equal(t, "ap-southeast-2", p.Region)
	assert.Equal(t, "us-west-2", p.SSORegion)
	assert.Equal(t, "dev-sso", p.RawConfig.Key("sso_session").String())
}

func TestLoadSections(t *testing.T) {
	store := &Store{Config: loader{fileString: testConfig}}

	sessions, err := store.LoadSections("sso-session *")
	require.NoError(t, err)
	want := []Section{
		{Name: "sso-session dev-sso", Attributes: map[string]string{"sso_start_url": "https://x.awsapps.com/start", "sso_region": "us-west-2"}},
		{Name: "sso-session regional", Attributes: map[string]string{"sso_start_url": "https://y.awsapps.com/start", "sso_region": "eu-central-1", "region": "eu-central-1"}},
	}
	assert.Equal(t, want, sessions)

	profiles, err := store.LoadSections("profile *")
	require.NoError(t, err)
	assert.Len(t, profiles, 6)

	_, err = store.LoadSections("[")
	assert.Error(t, err)
}

func TestSSOProfiles(t *testing.T) {
	store := &Store{Config: loader{fileString: testConfig}}
	profiles, err := store.SSOProfiles()
	require.NoError(t, err)

	var names []string
	for _, p := range profiles {
		names = append(names, p.Name)
	}
	// dangling is skipped as its session is missing, iam has no sso keys
	assert.Equal(t, []string{"default", "dev", "legacy", "prod", "session-region"}, names)
}

func TestSSOProfilesEmptyConfig(t *testing.T) {
	store := &Store{Config: nooploader{}}
	profiles, err := store.SSOProfiles()
	require.NoError(t, err)
	assert.Empty(t, profiles)
}

func TestFileLoaderMissingFile(t *testing.T) {
	f, err := FileLoader{FilePath: t.TempDir() + "/does-not-exist"}.Load()
	require.NoError(t, err)
	for _, s := range f.Sections() {
		assert.Equal(t, ini.DefaultSection, s.Name())
	}
}

func TestIsLegalProfileName(t *testing.T) {
	assert.True(t, IsLegalProfileName("dev"))
	assert.True(t, IsLegalProfileName("dev/admin"))
	assert.False(t, IsLegalProfileName("dev admin"))
	assert.False(t, IsLegalProfileName("dev[1]"))
}

func TestLoadProfileKeysAreCaseInsensitive(t *testing.T) {
	store := &Store{Config: loader{fileString: `
[profile mixed]
SSO_Start_URL = https://x.awsapps.com/start
Sso_Region = us-west-2
SSO_ACCOUNT_ID = 123456789012
sso_role_name = Developer
`}}
	p, err := store.LoadProfile("mixed")
	require.NoError(t, err)
	assert.Equal(t, "https://x.awsapps.com/start", p.SSOStartURL)
	assert.Equal(t, "us-west-2", p.SSORegion)
	assert.Equal(t, "123456789012", p.SSOAccountID)
}

func TestNewStoreLowercasesConfigKeys(t *testing.T) {
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(t.TempDir(), "config"))
	store := NewStore()
	assert.True(t, store.Config.(FileLoader).InsensitiveKeys)
}

func TestFileLoaderKeepsValuesVerbatim(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(path, []byte(`[profile tool]
credential_process = sh -c 'get-creds; echo done' # not a comment
Region = "eu-west-1"
`), 0600))

	f, err := FileLoader{FilePath: path}.Load()
	require.NoError(t, err)
	section, err := f.GetSection("profile tool")
	require.NoError(t, err)
	assert.Equal(t, "sh -c 'get-creds; echo done' # not a comment", section.Key("credential_process").String())
	assert.Equal(t, `"eu-west-1"`, section.Key("Region").String())
	// keys keep their case unless InsensitiveKeys is set
	assert.False(t, section.HasKey("region"))
}

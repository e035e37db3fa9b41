package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromMissingFile(t *testing.T) {
	c, err := LoadFrom(filepath.Join(t.TempDir(), "config"))
	require.NoError(t, err)
	assert.Equal(t, []string{"aws", "sso", "login", "--profile", "{profile}"}, c.Login())

	d, err := c.SettleDelayDuration()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, d)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config")
	c := NewDefaultConfig()
	c.DefaultRegion = "ap-southeast-2"
	c.LoginCommand = []string{"aws-sso-util", "login", "--profile", ProfilePlaceholder}
	c.SettleDelay = "500ms"
	require.NoError(t, c.SaveTo(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(USER_READ_WRITE_PERM), info.Mode().Perm())

	got, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, &c, got)

	d, err := got.SettleDelayDuration()
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, d)
}

func TestLoadFromInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(path, []byte("LoginCommand = ["), 0600))
	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestSettleDelayDuration(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    time.Duration
		wantErr bool
	}{
		{name: "empty", value: "", want: DefaultSettleDelay},
		{name: "seconds", value: "5s", want: 5 * time.Second},
		{name: "not a duration", value: "soon", wantErr: true},
		{name: "zero", value: "0s", wantErr: true},
		{name: "negative", value: "-1s", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Config{SettleDelay: tt.value}
			got, err := c.SettleDelayDuration()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigFolder(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")

	folder, err := ConfigFolder()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".ssorefresh"), folder)

	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	folder, err = ConfigFolder()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(xdg, "ssorefresh"), folder)

	// an existing ~/.ssorefresh wins over XDG_CONFIG_HOME
	require.NoError(t, os.Mkdir(filepath.Join(home, ".ssorefresh"), 0700))
	folder, err = ConfigFolder()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".ssorefresh"), folder)
}

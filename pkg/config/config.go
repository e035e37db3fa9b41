// package config stores user settings for ssorefresh, such as the
// login command to run when the sso cache is empty and the default
// region to write to refreshed credentials.
package config

import (
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/common-fate/ssorefresh/internal/build"
)

const (
	// permission for user to read/write.
	USER_READ_WRITE_PERM = 0600
)

const (
	// permission for user to read/write/execute.
	USER_READ_WRITE_EXECUTE_PERM = 0700
)

// ProfilePlaceholder is replaced with the profile name in each LoginCommand argument.
const ProfilePlaceholder = "{profile}"

// DefaultSettleDelay is how long to wait after a login before reading the sso cache again.
const DefaultSettleDelay = 2 * time.Second

// DefaultLoginCommand is the AWS CLI v2 login flow, which writes its token to ~/.aws/sso/cache.
var DefaultLoginCommand = []string{"aws", "sso", "login", "--profile", ProfilePlaceholder}

type Config struct {
	// DefaultRegion is written to refreshed credentials when the profile has no region.
	// Short forms such as 'ue1' are expanded.
	DefaultRegion string `toml:",omitempty"`

	// SSOCacheDir overrides ~/.aws/sso/cache
	SSOCacheDir string `toml:",omitempty"`

	// LoginCommand is run when no usable sso login is cached.
	//
	// For example: ["aws", "sso", "login", "--profile", "{profile}"]
	LoginCommand []string `toml:",omitempty"`

	// SettleDelay is a duration string such as '2s'.
	SettleDelay string `toml:",omitempty"`
}

// NewDefaultConfig returns a config with the defaults populated
func NewDefaultConfig() Config {
	return Config{
		LoginCommand: slices.Clone(DefaultLoginCommand),
		SettleDelay:  DefaultSettleDelay.String(),
	}
}

// Login returns the login command, falling back to DefaultLoginCommand.
func (c *Config) Login() []string {
	if len(c.LoginCommand) == 0 {
		return slices.Clone(DefaultLoginCommand)
	}
	return c.LoginCommand
}

// SettleDelayDuration parses SettleDelay. An empty value is DefaultSettleDelay.
func (c *Config) SettleDelayDuration() (time.Duration, error) {
	if c.SettleDelay == "" {
		return DefaultSettleDelay, nil
	}
	d, err := time.ParseDuration(c.SettleDelay)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing SettleDelay %q", c.SettleDelay)
	}
	if d <= 0 {
		return 0, errors.Errorf("SettleDelay must be positive, got %s", c.SettleDelay)
	}
	return d, nil
}

// checks and or creates the config folder on startup
func SetupConfigFolder() error {
	folder, err := ConfigFolder()
	if err != nil {
		return err
	}
	return os.MkdirAll(folder, USER_READ_WRITE_EXECUTE_PERM)
}

func ConfigFolder() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	configDir := filepath.Join(home, build.ConfigFolderName)
	if xdgConfigDir := os.Getenv("XDG_CONFIG_HOME"); !pathExists(configDir) && xdgConfigDir != "" {
		configDir = filepath.Join(xdgConfigDir, "ssorefresh")
	}

	return configDir, nil
}

func ConfigFilePath() (string, error) {
	folder, err := ConfigFolder()
	if err != nil {
		return "", err
	}
	return filepath.Join(folder, "config"), nil
}

// pathExists checks if a given file exists and returns true or false
func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func Load() (*Config, error) {
	configFilePath, err := ConfigFilePath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configFilePath)
}

// LoadFrom reads the config at path. A missing file returns the defaults.
func LoadFrom(path string) (*Config, error) {
	c := NewDefaultConfig()

	_, err := toml.DecodeFile(path, &c)
	if os.IsNotExist(err) {
		return &c, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}
	return &c, nil
}

func (c *Config) Save() error {
	configFilePath, err := ConfigFilePath()
	if err != nil {
		return err
	}
	return c.SaveTo(configFilePath)
}

func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), USER_READ_WRITE_EXECUTE_PERM); err != nil {
		return err
	}
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, USER_READ_WRITE_PERM)
	if err != nil {
		return err
	}
	defer file.Close()
	return toml.NewEncoder(file).Encode(c)
}

package cfaws

import (
	"os"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/common-fate/clio"
	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
)

// DefaultRegion is used as the credential region when neither the profile
// nor its sso-session sets one.
const DefaultRegion = "us-east-1"

var ErrProfileNotFound error = errors.New("profile not found")

// ErrSessionNotFound is returned when a profile references an sso-session block
// which doesn't exist. It matches ErrProfileNotFound with errors.Is.
var ErrSessionNotFound error = &notFoundError{msg: "sso-session not found"}

var ErrNotSSOProfile error = errors.New("profile is not configured for AWS SSO")

type notFoundError struct{ msg string }

func (e *notFoundError) Error() string { return e.msg }

func (e *notFoundError) Is(target error) bool { return target == ErrProfileNotFound }

type Profile struct {
	// allows access to the raw values from the file
	RawConfig *ini.Section
	Name      string
	// the file that this profile is from
	File string

	SSOStartURL    string
	SSORegion      string
	SSORoleName    string
	SSOAccountID   string
	SSOSessionName string
	// Region is written alongside the credentials
	Region string
}

type ConfigFileLoader interface {
	Load() (*ini.File, error)
	Path() string
}

type FileLoader struct {
	FilePath string
	// InsensitiveKeys lowercases key names, as the AWS CLI does when reading the config file.
	// Leave it unset for files which are written back.
	InsensitiveKeys bool
}

func (f FileLoader) Path() string {
	return f.FilePath
}

func (f FileLoader) Load() (*ini.File, error) {
	opts := LoadOptions(f.InsensitiveKeys)
	configFile, err := ini.LoadSources(opts, f.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return ini.Empty(opts), nil
		}
		return nil, err
	}
	return configFile, nil
}

// LoadOptions reads values the way the AWS CLI does: verbatim, so '#' and ';' inside a value,
// surrounding quotes and trailing backslashes are kept and written back unchanged.
func LoadOptions(insensitiveKeys bool) ini.LoadOptions {
	return ini.LoadOptions{
		AllowNonUniqueSections:  false,
		SkipUnrecognizableLines: false,
		AllowNestedValues:       true,
		IgnoreInlineComment:     true,
		PreserveSurroundedQuote: true,
		IgnoreContinuation:      true,
		InsensitiveKeys:         insensitiveKeys,
	}
}

// GetAWSConfigPath will return default AWS config file path unless $AWS_CONFIG_FILE
// environment variable is set
func GetAWSConfigPath() string {
	file := os.Getenv("AWS_CONFIG_FILE")
	if file != "" {
		clio.Debugf("using aws config filepath: %s", file)
		return file
	}

	return config.DefaultSharedConfigFilename()
}

// GetAWSCredentialsPath will return default AWS shared credential file path unless $AWS_SHARED_CREDENTIALS_FILE
// environment variable is set
func GetAWSCredentialsPath() string {
	file := os.Getenv("AWS_SHARED_CREDENTIALS_FILE")
	if file != "" {
		clio.Debugf("using aws credential filepath: %s", file)
		return file
	}

	return config.DefaultSharedCredentialsFilename()
}

// Store reads profiles and sso-session blocks from an AWS config file.
type Store struct {
	Config ConfigFileLoader
	// DefaultRegion overrides the package DefaultRegion when set
	DefaultRegion string
}

// NewStore returns a Store reading the config file from $AWS_CONFIG_FILE or ~/.aws/config
func NewStore() *Store {
	return &Store{Config: FileLoader{FilePath: GetAWSConfigPath(), InsensitiveKeys: true}}
}

// Section is a named block of key value pairs.
type Section struct {
	Name       string
	Attributes map[string]string
}

// LoadSections returns every section of the config file whose name matches pattern.
// The pattern uses path.Match syntax, e.g. "profile *" or "sso-session *".
func (s *Store) LoadSections(pattern string) ([]Section, error) {
	f, err := s.Config.Load()
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", s.Config.Path())
	}
	var sections []Section
	for _, sec := range f.Sections() {
		if sec.Name() == ini.DefaultSection {
			continue
		}
		ok, err := path.Match(pattern, sec.Name())
		if err != nil {
			return nil, errors.Wrapf(err, "matching section pattern %q", pattern)
		}
		if ok {
			sections = append(sections, Section{Name: sec.Name(), Attributes: sec.KeysHash()})
		}
	}
	return sections, nil
}

// LoadProfile resolves the named profile. When the profile references an sso-session
// block, the session's sso_start_url, sso_region and region are used for any of those
// keys the profile doesn't set itself.
func (s *Store) LoadProfile(name string) (*Profile, error) {
	f, err := s.Config.Load()
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", s.Config.Path())
	}
	return s.resolve(f, name)
}

func (s *Store) resolve(f *ini.File, name string) (*Profile, error) {
	section, err := f.GetSection(profileSectionName(name))
	if err != nil {
		return nil, errors.Wrapf(ErrProfileNotFound, "%s in %s", name, s.Config.Path())
	}

	p := &Profile{
		RawConfig:      section,
		Name:           name,
		File:           s.Config.Path(),
		SSOStartURL:    value(section, "sso_start_url"),
		SSORegion:      value(section, "sso_region"),
		SSORoleName:    value(section, "sso_role_name"),
		SSOAccountID:   value(section, "sso_account_id"),
		SSOSessionName: value(section, "sso_session"),
		Region:         value(section, "region"),
	}

	if p.SSOSessionName != "" {
		session, err := f.GetSection("sso-session " + p.SSOSessionName)
		if err != nil {
			return nil, errors.Wrapf(ErrSessionNotFound, "%s referenced by profile %s", p.SSOSessionName, name)
		}
		p.SSOStartURL = firstNonEmpty(p.SSOStartURL, value(session, "sso_start_url"))
		p.SSORegion = firstNonEmpty(p.SSORegion, value(session, "sso_region"))
		p.Region = firstNonEmpty(p.Region, value(session, "region"))
	}
	p.Region = firstNonEmpty(p.Region, s.DefaultRegion, DefaultRegion)

	var missing []string
	for key, v := range map[string]string{
		"sso_start_url":  p.SSOStartURL,
		"sso_region":     p.SSORegion,
		"sso_role_name":  p.SSORoleName,
		"sso_account_id": p.SSOAccountID,
	} {
		if v == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, errors.Wrapf(ErrNotSSOProfile, "%s is missing %s", name, strings.Join(missing, ", "))
	}
	return p, nil
}

// SSOProfiles returns every profile which is configured for AWS SSO, either directly with
// sso_start_url or through an sso_session, sorted by name.
// Profiles which can't be resolved are skipped with a warning.
func (s *Store) SSOProfiles() ([]*Profile, error) {
	f, err := s.Config.Load()
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", s.Config.Path())
	}
	var profiles []*Profile
	for _, section := range f.Sections() {
		name, ok := profileName(section.Name())
		if !ok || !IsLegalProfileName(name) {
			continue
		}
		if !section.HasKey("sso_session") && !section.HasKey("sso_start_url") {
			continue
		}
		p, err := s.resolve(f, name)
		if err != nil {
			clio.Warnf("skipping profile %s: %s", name, err)
			continue
		}
		profiles = append(profiles, p)
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Name < profiles[j].Name })
	return profiles, nil
}

// .aws/config files are structured as follows,
//
// [profile cf-dev]
// sso_session = cf
// ...
// [default]
// ...
func profileSectionName(name string) string {
	if name == "default" {
		return name
	}
	return "profile " + name
}

func profileName(section string) (string, bool) {
	if section == "default" {
		return section, true
	}
	if strings.HasPrefix(section, "profile ") && len(section) > 8 {
		return strings.TrimPrefix(section, "profile "), true
	}
	return "", false
}

// Helper function which returns true if provided profile name string does not contain illegal characters
func IsLegalProfileName(name string) bool {
	illegalProfileNameCharacters := regexp.MustCompile(`[\\[\];'" ]`)
	illegalChars := `\][;'"` // These characters break the config file format and are not allowed for profile names
	if illegalProfileNameCharacters.MatchString(name) {
		clio.Warnf("The profile %s cannot be loaded because the name contains one or more of these characters '%s'", name, illegalChars)
		clio.Infof("Try renaming the profile to '%s'", illegalProfileNameCharacters.ReplaceAllString(name, "-"))
		return false
	}
	return true
}

func value(section *ini.Section, key string) string {
	if !section.HasKey(key) {
		return ""
	}
	return strings.TrimSpace(section.Key(key).String())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

package cfaws

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/common-fate/clio"
	"github.com/pkg/errors"
)

// ExpiresAtLayout is the timestamp format of expiresAt in the AWS CLI sso cache.
const ExpiresAtLayout = "2006-01-02T15:04:05Z"

// ErrNoValidLogin is returned when no cached sso login matches the profile or all matches are expired.
// The user needs to log in again.
var ErrNoValidLogin error = errors.New("no valid cached sso login")

type SSOPlainTextOut struct {
	AccessToken string `json:"accessToken"`
	ExpiresAt   string `json:"expiresAt"`
	StartUrl    string `json:"startUrl"`
	Region      string `json:"region"`
}

// CachedLogin is a parsed record from the sso cache directory.
type CachedLogin struct {
	StartURL    string
	Region      string
	AccessToken string
	ExpiresAt   time.Time
	// Path is the cache file the login was read from
	Path string
}

// Find the ~/.aws/sso/cache absolute path based on OS.
func DefaultSSOCacheDir() (string, error) {
	h, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	cachePath := filepath.Join(h, ".aws", "sso", "cache")
	return cachePath, nil
}

// CacheScanner looks up cached sso logins written by the AWS CLI.
type CacheScanner struct {
	Dir string
	// Now defaults to time.Now
	Now func() time.Time
}

func (s *CacheScanner) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// FindValidLogin returns the most recently modified cache record whose startUrl and region
// match the profile and which hasn't expired.
//
// The path will like this so we open the folder then scan over every file.
//
//	~/.aws/sso/cache
//	└── a092ca4eExample27b5add8ec31d9b.json
//	└── botocore-client-id-ap-southeast-2.json
func (s *CacheScanner) FindValidLogin(profile *Profile) (*CachedLogin, error) {
	paths, err := s.listByModTime()
	if err != nil {
		return nil, err
	}
	now := s.now()
	for _, p := range paths {
		login, ok := parseCachedLogin(p)
		if !ok {
			continue
		}
		if login.StartURL != profile.SSOStartURL || login.Region != profile.SSORegion {
			clio.Debugw("skipping sso cache record", "path", p, "reason", "start url or region does not match")
			continue
		}
		if !login.ExpiresAt.After(now) {
			clio.Debugw("skipping sso cache record", "path", p, "reason", "expired", "expiresAt", login.ExpiresAt)
			continue
		}
		clio.Debugf("using cached sso login from %s", p)
		return login, nil
	}
	return nil, errors.Wrapf(ErrNoValidLogin, "for %s (%s)", profile.SSOStartURL, profile.SSORegion)
}

// listByModTime returns the files in the cache directory, most recently modified first.
// A missing directory has no files.
func (s *CacheScanner) listByModTime() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			clio.Debugf("sso cache directory %s does not exist", s.Dir)
			return nil, nil
		}
		return nil, errors.Wrapf(err, "reading sso cache directory %s", s.Dir)
	}

	type file struct {
		path    string
		modTime time.Time
	}
	var files []file
	for _, e := range entries {
		path := filepath.Join(s.Dir, e.Name())
		// os.Stat follows symlinked records
		info, err := os.Stat(path)
		if err != nil {
			// removed since the directory was read, or a dangling link
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		files = append(files, file{path: path, modTime: info.ModTime()})
	}
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].modTime.Equal(files[j].modTime) {
			return files[i].path < files[j].path
		}
		return files[i].modTime.After(files[j].modTime)
	})

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	return paths, nil
}

// parseCachedLogin reads a cache record. Files which can't be read or aren't sso token
// records return false; the cache directory also holds client registrations and files
// written by other tools.
func parseCachedLogin(path string) (*CachedLogin, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		clio.Debugw("skipping sso cache record", "path", path, "error", err)
		return nil, false
	}
	var raw SSOPlainTextOut
	if err := json.Unmarshal(data, &raw); err != nil {
		clio.Debugw("skipping sso cache record", "path", path, "reason", "invalid json")
		return nil, false
	}
	expiresAt, ok := parseExpiresAt(raw.ExpiresAt)
	if !ok {
		clio.Debugw("skipping sso cache record", "path", path, "reason", "invalid expiresAt", "expiresAt", raw.ExpiresAt)
		return nil, false
	}
	return &CachedLogin{
		StartURL:    raw.StartUrl,
		Region:      raw.Region,
		AccessToken: raw.AccessToken,
		ExpiresAt:   expiresAt,
		Path:        path,
	}, true
}

// parseExpiresAt accepts exactly ExpiresAtLayout. time.Parse also takes fractional seconds
// the layout doesn't have, so the value must format back to itself.
func parseExpiresAt(value string) (time.Time, bool) {
	t, err := time.Parse(ExpiresAtLayout, value)
	if err != nil || t.Format(ExpiresAtLayout) != value {
		return time.Time{}, false
	}
	return t.UTC(), true
}

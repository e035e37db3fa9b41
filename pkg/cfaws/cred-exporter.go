package cfaws

import (
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/common-fate/clio"
	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
)

const (
	// permission for user to read/write.
	USER_READ_WRITE_PERM = 0600
	// permission for user to read/write/execute.
	USER_READ_WRITE_EXECUTE_PERM = 0700
)

// Attribute is an ordered key value pair written to an ini section.
type Attribute struct {
	Key   string
	Value string
}

// CredentialsFile is the shared credentials file that refreshed credentials are exported to.
type CredentialsFile struct {
	Path string
}

// NewCredentialsFile returns the credentials file at $AWS_SHARED_CREDENTIALS_FILE or ~/.aws/credentials
func NewCredentialsFile() *CredentialsFile {
	return &CredentialsFile{Path: GetAWSCredentialsPath()}
}

// Write replaces the section for profileName with the given region and credentials.
// Any keys previously stored for the profile are dropped.
func (c *CredentialsFile) Write(profileName string, region string, creds aws.Credentials) error {
	err := ReplaceSection(c.Path, profileName, []Attribute{
		{Key: "region", Value: region},
		{Key: "aws_access_key_id", Value: creds.AccessKeyID},
		{Key: "aws_secret_access_key", Value: creds.SecretAccessKey},
		{Key: "aws_session_token", Value: creds.SessionToken},
	})
	if err != nil {
		return errors.Wrapf(err, "writing credentials for %s", profileName)
	}
	clio.Debugf("wrote credentials for profile %s to %s", profileName, c.Path)
	return nil
}

// ReplaceSection removes the section called name from the ini file at path, creates it again
// with attrs in order, and rewrites the whole file.
// The file is written to a temporary file in the same directory and renamed into place,
// so a reader sees either the old or the new contents. There is no locking between processes.
func ReplaceSection(path string, name string, attrs []Attribute) error {
	file, err := FileLoader{FilePath: path}.Load()
	if err != nil {
		return errors.Wrapf(err, "loading %s", path)
	}

	if _, err := file.GetSection(name); err == nil {
		file.DeleteSection(name)
	}
	section, err := file.NewSection(name)
	if err != nil {
		return errors.Wrapf(err, "creating section %s", name)
	}
	for _, a := range attrs {
		if _, err := section.NewKey(a.Key, a.Value); err != nil {
			return errors.Wrapf(err, "setting %s", a.Key)
		}
	}
	return save(file, path)
}

func save(file *ini.File, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, USER_READ_WRITE_EXECUTE_PERM); err != nil {
		return errors.Wrapf(err, "creating %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	// a no-op once the rename has happened
	defer os.Remove(tmp.Name())

	// os.CreateTemp creates the file with USER_READ_WRITE_PERM
	if _, err := file.WriteTo(tmp); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "writing %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

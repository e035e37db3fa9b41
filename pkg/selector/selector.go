// Package selector prompts the user to choose an sso profile when none is given on the command line.
package selector

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"

	"github.com/common-fate/ssorefresh/pkg/cfaws"
	"github.com/common-fate/ssorefresh/pkg/testable"
)

var (
	ErrNotInteractive = errors.New("a profile must be given when not running in a terminal")
	ErrNoProfiles     = errors.New("no sso profiles were found in the aws config file")
)

type Selector struct {
	// IsTerminal defaults to checking stdin and stderr
	IsTerminal func() bool
}

func IsTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (s *Selector) interactive() bool {
	if testable.IsTesting() {
		return true
	}
	if s.IsTerminal != nil {
		return s.IsTerminal()
	}
	return IsTerminal(os.Stdin.Fd()) && IsTerminal(os.Stderr.Fd())
}

// Select asks which of profiles to refresh.
func (s *Selector) Select(profiles []*cfaws.Profile) (*cfaws.Profile, error) {
	if len(profiles) == 0 {
		return nil, ErrNoProfiles
	}
	if !s.interactive() {
		return nil, ErrNotInteractive
	}

	byName := make(map[string]*cfaws.Profile, len(profiles))
	options := make([]string, len(profiles))
	for i, p := range profiles {
		options[i] = p.Name
		byName[p.Name] = p
	}

	withStdio := survey.WithStdio(os.Stdin, os.Stderr, os.Stderr)
	fmt.Fprintln(color.Error, "")
	in := survey.Select{
		Message: "Please select the profile you would like to refresh:",
		Options: options,
		Description: func(value string, index int) string {
			return describe(profiles[index])
		},
	}
	var selected string
	err := testable.AskOne(&in, &selected, withStdio, survey.WithFilter(matchProfile))
	if err != nil {
		return nil, err
	}

	p, ok := byName[selected]
	if !ok {
		return nil, errors.Wrapf(cfaws.ErrProfileNotFound, "selected profile %s", selected)
	}
	return p, nil
}

func describe(p *cfaws.Profile) string {
	return p.SSOAccountID + " " + p.SSORoleName
}

// matchProfile fuzzy matches the filter typed into the prompt against a profile name.
func matchProfile(filter string, value string, index int) bool {
	return fuzzy.MatchFold(filter, value)
}

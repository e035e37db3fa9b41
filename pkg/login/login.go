// Package login runs an external command which signs the user in to AWS IAM Identity Center
// and populates the sso cache, such as 'aws sso login --profile dev'.
package login

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/alessio/shellescape"
	"github.com/common-fate/clio"
	"github.com/pkg/errors"

	"github.com/common-fate/ssorefresh/pkg/config"
)

// Runner runs Command with the profile substituted for config.ProfilePlaceholder.
// The command may be interactive, so it is attached to the terminal by default.
type Runner struct {
	Command []string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewRunner returns a runner for the login command from settings.
func NewRunner(cfg *config.Config) *Runner {
	return &Runner{Command: cfg.Login()}
}

// Args returns the command line for profile.
func (r *Runner) Args(profile string) []string {
	args := make([]string, len(r.Command))
	for i, a := range r.Command {
		args[i] = strings.ReplaceAll(a, config.ProfilePlaceholder, profile)
	}
	return args
}

// Login blocks until the command exits. A non-zero exit status is an error.
func (r *Runner) Login(ctx context.Context, profile string) error {
	args := r.Args(profile)
	if len(args) == 0 || args[0] == "" {
		return errors.New("no login command is configured")
	}

	clio.Debugf("running %s", shellescape.QuoteCommand(args))

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	if r.Stdin != nil {
		cmd.Stdin = r.Stdin
	}
	if r.Stdout != nil {
		cmd.Stdout = r.Stdout
	}
	if r.Stderr != nil {
		cmd.Stderr = r.Stderr
	}

	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return errors.Errorf("%s exited with status %d", args[0], exitErr.ExitCode())
	}
	if err != nil {
		return errors.Wrapf(err, "running %s", args[0])
	}
	return nil
}

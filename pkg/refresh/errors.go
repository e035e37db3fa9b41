package refresh

import "github.com/pkg/errors"

var (
	// ErrLoginFailed is returned when the login command fails. The refresh is not retried.
	ErrLoginFailed error = errors.New("sso login failed")
	// ErrLoginRequired is returned when no usable login is cached and logging in is disabled.
	ErrLoginRequired error = errors.New("sso login required")
	// ErrRefreshFailed is returned when credentials can't be refreshed even after a successful login.
	ErrRefreshFailed error = errors.New("refreshing credentials failed after logging in")
)

// Error is a failed refresh. It matches its Kind with errors.Is and unwraps to the cause.
type Error struct {
	Kind    error
	Profile string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.Error() + " for " + e.Profile
	}
	return e.Kind.Error() + " for " + e.Profile + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == e.Kind }

package fetcher

import "errors"

// Classified fetch failures. Blocked and NotFound are terminal for the
// URL (and Blocked is terminal for the whole run); everything else is
// transient and worth retrying.
var (
	ErrBlocked  = errors.New("fetcher: blocked by anti-bot challenge")
	ErrNotFound = errors.New("fetcher: page not found")
	ErrTimeout  = errors.New("fetcher: navigation timeout")
)

// Transient reports whether an error is worth retrying. Timeouts are
// transient; Blocked and NotFound are not.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrBlocked) && !errors.Is(err, ErrNotFound)
}

// internal/grid/errors.go
package grid

import "errors"

// Fatal measurement errors. Each aborts the whole pass; callers match them
// with errors.Is and the returned error carries the offending selector or
// property in its message.
var (
	ErrGridUndetectable  = errors.New("Could not detect grid size")
	ErrOriginNotFound    = errors.New("Origin selector matched no elements")
	ErrNoMatches         = errors.New("Selectors matched no elements")
	ErrNoVisibleElements = errors.New("No visible elements found for selectors")
)

// IsFatal reports whether err is one of the measurement errors above.
func IsFatal(err error) bool {
	return errors.Is(err, ErrGridUndetectable) ||
		errors.Is(err, ErrOriginNotFound) ||
		errors.Is(err, ErrNoMatches) ||
		errors.Is(err, ErrNoVisibleElements)
}

package repository

import "errors"

// ErrNotMatched is returned by conditional updates when no row was in the
// expected state.
var ErrNotMatched = errors.New("no row matched the update condition")

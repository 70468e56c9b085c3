package render

import "errors"

// ErrInput marks requests rejected before any drawing starts: no points,
// an unresolvable value field, or invalid options.
var ErrInput = errors.New("invalid render input")

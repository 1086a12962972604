package envutil

import (
	"errors"
)

var (
	ErrBadEnvVar     = errors.New("error parsing environment variable")
	ErrEnvVarMissing = errors.New("missing environment variable")
	ErrInvalidLevel  = errors.New("invalid log level")
)

// errUnsetValue is returned from a Map function to clear the value of a
// Reader, making it behave as if the variable was never set.
var errUnsetValue = errors.New("unset value")

package sim

import "errors"

// ErrUnresolvedSeed is returned for seeds with an unset parameter
var ErrUnresolvedSeed = errors.New("seed has unset parameters")

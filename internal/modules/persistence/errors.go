package persistence

import "errors"

var ErrNotSequence = errors.New("stored value is not a sequence")

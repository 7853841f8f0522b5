package traincli

import "errors"

// ErrBadConfig marks pipeline configurations that cannot run.
var ErrBadConfig = errors.New("invalid pipeline config")

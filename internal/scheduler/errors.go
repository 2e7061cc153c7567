package scheduler

import "errors"

var ErrUnknownJob = errors.New("unknown job")

package common

import "errors"

var (
	ErrNotFound   = errors.New("requested item not found")
	ErrDuplicate  = errors.New("capture already recorded for source within dedup window")
	ErrBadRequest = errors.New("bad request")
	ErrForbidden  = errors.New("source not allowed")
)

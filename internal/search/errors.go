package search

import "errors"

var (
	ErrUnknownStrategy = errors.New("unknown search strategy")
	ErrInvalidDepth    = errors.New("invalid search depth")
)

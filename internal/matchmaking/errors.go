package matchmaking

import "errors"

var (
	ErrPlayerNotInQueue = errors.New("player is not in queue")
	ErrInvalidUsername  = errors.New("invalid username")
)

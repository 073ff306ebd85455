package board

import "errors"

var (
	ErrColumnFull        = errors.New("column is full")
	ErrInvalidColumn     = errors.New("invalid column")
	ErrInvalidPlayer     = errors.New("invalid player")
	ErrInvalidDimensions = errors.New("invalid board dimensions")
	ErrFloatingPiece     = errors.New("piece is not supported by the cell below")
	ErrInvalidCell       = errors.New("invalid cell value")
)

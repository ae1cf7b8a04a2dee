package apperror

import "errors"

// Move rejection reasons. None of them is a fault: they describe ordinary input.
var (
	ErrGameFinished = errors.New("game is already finished")
	ErrInvalidCell  = errors.New("invalid cell index")
	ErrCellOccupied = errors.New("cell is already occupied")
)

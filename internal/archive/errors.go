package archive

import "errors"

var (
	// ErrInputNotFound indicates the source archive does not exist.
	ErrInputNotFound = errors.New("input archive not found")
	// ErrZeroSizeInput indicates the source archive is empty.
	ErrZeroSizeInput = errors.New("input archive is empty")
	// ErrDestinationWrite indicates the rewritten archive could not be written.
	ErrDestinationWrite = errors.New("destination write failed")
	// ErrDestinationLocked indicates another process is writing the destination.
	ErrDestinationLocked = errors.New("destination is locked by another process")
)

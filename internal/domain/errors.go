package domain

import "errors"

var (
	ErrDocumentNotFound  = errors.New("document not found")
	ErrParseFailure      = errors.New("document does not parse as xml")
	ErrWriteFailure      = errors.New("output could not be written")
	ErrContainerNotFound = errors.New("container element not found")
	ErrInvalidMask       = errors.New("invalid working-week mask")
	ErrInvalidDate       = errors.New("invalid date")
)

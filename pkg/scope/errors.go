package scope

import "errors"

var (
	ErrUnknownOperation = errors.New("unknown operation")
	ErrMissingTable     = errors.New("table is required")
	ErrForeignRow       = errors.New("row belongs to another tenant")
	ErrStore            = errors.New("storage operation failed")
)

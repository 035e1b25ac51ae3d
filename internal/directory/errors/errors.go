package errors

import (
	"fmt"
)

var (
	ErrNotFound         = fmt.Errorf("not found")
	ErrStoreUnavailable = fmt.Errorf("store unavailable")
	ErrFetchFailed      = fmt.Errorf("fetch failed")
	ErrInvalidInput     = fmt.Errorf("invalid input")
)

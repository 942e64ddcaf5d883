package entitystore

import (
	"errors"
	"fmt"

	"github.com/nimasrn/denitracker/internal/localstore"
)

// ErrNotFound is the local collections' not-found error.
var ErrNotFound = localstore.ErrNotFound

// LocalStoreError is a failure of the on-device database. It is always
// returned to the caller; the in-memory collection is left as it was.
type LocalStoreError struct {
	Entity string
	Op     string
	Err    error
}

func (e *LocalStoreError) Error() string {
	return fmt.Sprintf("local store: %s %s: %v", e.Op, e.Entity, e.Err)
}

func (e *LocalStoreError) Unwrap() error {
	return e.Err
}

func IsLocalStoreError(err error) bool {
	var lse *LocalStoreError
	return errors.As(err, &lse)
}

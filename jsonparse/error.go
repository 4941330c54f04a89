package jsonparse

import (
	"errors"

	"github.com/corvid-labs/jsontree/jsonerr"
)

// LastError extracts the byte offset from a parse error, if err is one.
// It exists purely as a documented compatibility shim over errors.As for
// callers migrating from the original library's thread-local error-cursor
// query; new code should just use errors.As(err, &jsonErr) directly.
func LastError(err error) (offset int, ok bool) {
	var je *jsonerr.Error
	if errors.As(err, &je) {
		return je.Offset, true
	}
	return 0, false
}

package query

import "github.com/zeebo/errs"

// ErrValidation marks malformed, out-of-range or too-numerous filter
// values. Validation errors are field-scoped and raised before any storage
// access.
var ErrValidation = errs.Class("invalid parameter")

// ErrNotFound marks a directly-addressed singular entity that does not
// exist. An empty filtered page is never a not-found condition.
var ErrNotFound = errs.Class("not found")

func validation(field, format string, args ...any) error {
	return ErrValidation.New(field+": "+format, args...)
}

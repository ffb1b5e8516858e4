// README: Error kinds shared by every module; module errors wrap one of these.
package types

import "errors"

var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrConfigMissing = errors.New("configuration missing")
)

// README: Booking errors; each wraps one of the shared kinds in internal/types.
package booking

import (
	"fmt"

	"ridebook/internal/types"
)

var (
	ErrBadRequest       = fmt.Errorf("%w: bad request", types.ErrValidation)
	ErrNotFound         = fmt.Errorf("%w: booking", types.ErrNotFound)
	ErrDetailNotFound   = fmt.Errorf("%w: booking detail", types.ErrNotFound)
	ErrInvalidState     = fmt.Errorf("%w: invalid state transition", types.ErrConflict)
	ErrConflict         = fmt.Errorf("%w: booking detail changed concurrently", types.ErrConflict)
	ErrActiveAssignment = fmt.Errorf("%w: booking already has an active assignment", types.ErrConflict)
	ErrSelfClaim        = fmt.Errorf("%w: inviting driver cannot take own booking", types.ErrConflict)
	ErrCapacityExceeded = fmt.Errorf("%w: taxi seat capacity exceeded", types.ErrConflict)
	ErrNotAssigned      = fmt.Errorf("%w: driver is not assigned to this booking", types.ErrConflict)
	ErrBookingFinished  = fmt.Errorf("%w: booking already completed", types.ErrConflict)
)

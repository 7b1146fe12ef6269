package orders

import (
	"errors"
	"fmt"

	"parkservices/internal/domain"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidRating     = errors.New("rating must be between 1 and 5")
	ErrTooManyPhotos     = errors.New("too many completion photos")
	ErrInvalidCategory   = errors.New("invalid service category")
	ErrHandlerRequired   = errors.New("handler is required")
)

// TransitionError reports an action applied to an order whose status is not an allowed source.
type TransitionError struct {
	OrderID string
	Action  Action
	From    domain.OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s order %s in status %q", e.Action, e.OrderID, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

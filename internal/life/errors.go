package life

import "errors"

var (
	ErrClosed = errors.New("life: simulation closed")
	ErrMode   = errors.New("life: unknown execution mode")
	ErrSide   = errors.New("life: initial grid does not match side")
)

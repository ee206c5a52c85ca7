package offer

import "errors"

var (
	ErrOfferNotFound       = errors.New("offer not found")
	ErrForbidden           = errors.New("not the offer owner")
	ErrOfferLocked         = errors.New("offer is booked or completed")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrInsufficientCredits = errors.New("insufficient credits")
)

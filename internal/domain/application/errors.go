package application

import "errors"

var (
	ErrApplicationNotFound = errors.New("application not found")
	ErrAlreadyApplied      = errors.New("already applied to this offer")
	ErrOwnApplication      = errors.New("cannot apply to own offer")
	ErrOfferNotOpen        = errors.New("offer no longer takes applications")
	ErrApplicationDecided  = errors.New("application already decided")
	ErrForbidden           = errors.New("not the offer owner")
)

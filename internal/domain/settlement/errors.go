package settlement

import "errors"

var (
	ErrForbidden           = errors.New("not the offer owner")
	ErrNoAcceptedApplicant = errors.New("offer has no single accepted applicant")
	ErrAlreadyCompleted    = errors.New("offer already completed")
	ErrOfferNotBooked      = errors.New("offer is not booked")
	ErrBalanceNotFound     = errors.New("time balance not found")
)

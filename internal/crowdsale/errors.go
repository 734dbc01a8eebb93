package crowdsale

import "errors"

var (
	ErrUnknownCampaign    = errors.New("unknown campaign")
	ErrAlreadyExists      = errors.New("campaign already exists")
	ErrInvalidParameter   = errors.New("invalid parameter")
	ErrForbidden          = errors.New("forbidden")
	ErrNotActive          = errors.New("campaign not active")
	ErrNotClosed          = errors.New("campaign not closed")
	ErrNotRefunding       = errors.New("campaign not refunding")
	ErrCrowdsaleClosed    = errors.New("crowdsale closed")
	ErrTooEarly           = errors.New("too early to finalize")
	ErrBelowMinimum       = errors.New("below minimum investment")
	ErrNotEligible        = errors.New("investor not eligible")
	ErrCapExceeded        = errors.New("cap exceeded")
	ErrNothingToClaim     = errors.New("nothing to claim")
	ErrArithmeticOverflow = errors.New("arithmetic overflow")
	ErrTransferFailed     = errors.New("transfer failed")
)

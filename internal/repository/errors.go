package repository

import "errors"

// Sentinel errors returned by the repositories. Handlers map these onto
// HTTP statuses; everything else is treated as a 500.
var (
	ErrTripNotFound        = errors.New("trip not found")
	ErrTerminalNotFound    = errors.New("terminal not found")
	ErrSeatNotFound        = errors.New("seat not found")
	ErrSeatUnavailable     = errors.New("seat no longer available")
	ErrFareSoldOut         = errors.New("fare sold out")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrCouponNotFound      = errors.New("coupon not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailTaken          = errors.New("email already registered")
	ErrForbidden           = errors.New("forbidden")
)

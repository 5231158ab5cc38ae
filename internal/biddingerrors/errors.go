package biddingerrors

import "errors"

// Lookup errors
var (
	ErrAuctionNotFound = errors.New("auction not found")
	ErrProfileNotFound = errors.New("profile not found")
)

// Bid acceptance errors
var (
	ErrInvalidAmount       = errors.New("invalid bid amount")
	ErrBidTooLow           = errors.New("bid amount too low")
	ErrAuctionExpired      = errors.New("auction has ended")
	ErrInvalidAuctionState = errors.New("auction is not active")
)

// Session and authorization errors
var (
	ErrUnauthenticated = errors.New("no user session")
	ErrForbidden       = errors.New("admin role required")
)

// Request validation errors
var (
	ErrInvalidAuction = errors.New("invalid auction")
	ErrInvalidRequest = errors.New("invalid request")
)

// ErrBackendUnavailable wraps network and storage failures. The underlying
// cause is kept in the chain but is not interpreted by callers.
var ErrBackendUnavailable = errors.New("backend unavailable")

package errors

import "errors"

// Conflict outcomes are legitimate results of concurrent demand, not
// bugs; handlers map them to 409 with enough detail for the client to
// refresh the seat map or retry.
var ErrSeatConflict = errors.New("seat already held")
var ErrSoldOut = errors.New("insufficient availability")
var ErrNothingToCancel = errors.New("nothing eligible to cancel")

var ErrNotFound = errors.New("not found")
var ErrValidation = errors.New("invalid input")
var ErrUpstreamUnavailable = errors.New("upstream dependency unavailable")

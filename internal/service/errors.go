package service

import (
    "errors"
    "fmt"
    "strings"
)

// Errors returned by the service layer.  Handlers map them to HTTP status
// codes with errors.Is / errors.As.
var (
    ErrInvalidRaffle      = errors.New("raffle is not open for sale")
    ErrIncompleteFields   = errors.New("incomplete or invalid fields")
    ErrNumbersUnavailable = errors.New("numbers unavailable")
    ErrPaymentLinkFailed  = errors.New("payment link failed")
    ErrForbidden          = errors.New("forbidden")
    ErrNotFound           = errors.New("not found")
)

// Wire codes for reservation failures.
const (
    CodeInvalidRaffle      = "invalid_raffle"
    CodeIncompleteFields   = "incomplete_fields"
    CodeNumbersUnavailable = "numbers_unavailable"
    CodePaymentLinkFailed  = "payment_link_failed"
)

// UnavailableError lists the requested numbers that are missing, held or
// sold.
type UnavailableError struct {
    Numbers []string
}

func (e *UnavailableError) Error() string {
    return fmt.Sprintf("numbers unavailable: %s", strings.Join(e.Numbers, ", "))
}

func (e *UnavailableError) Unwrap() error { return ErrNumbersUnavailable }

// ErrorCode returns the wire code for err, or "" when err is not one of
// the reservation failures.
func ErrorCode(err error) string {
    switch {
    case errors.Is(err, ErrInvalidRaffle):
        return CodeInvalidRaffle
    case errors.Is(err, ErrIncompleteFields):
        return CodeIncompleteFields
    case errors.Is(err, ErrNumbersUnavailable):
        return CodeNumbersUnavailable
    case errors.Is(err, ErrPaymentLinkFailed):
        return CodePaymentLinkFailed
    }
    return ""
}

func incomplete(format string, args ...any) error {
    return fmt.Errorf("%w: %s", ErrIncompleteFields, fmt.Sprintf(format, args...))
}

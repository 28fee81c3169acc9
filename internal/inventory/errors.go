package inventory

import (
    "errors"
    "fmt"
    "strings"
)

// ErrNotFound is returned by stores when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a unique key, such as a
// second ticket with the same number in one raffle or a reused slug.
var ErrDuplicate = errors.New("duplicate key")

// ErrNotAllFound is returned by Lookup when some requested numbers do not
// exist in the raffle.
var ErrNotAllFound = errors.New("not all ticket numbers found")

// MissingError lists the numbers Lookup could not find.  It unwraps to
// ErrNotAllFound.
type MissingError struct {
    Numbers []string
}

func (e *MissingError) Error() string {
    return fmt.Sprintf("%s: %s", ErrNotAllFound, strings.Join(e.Numbers, ","))
}

func (e *MissingError) Unwrap() error { return ErrNotAllFound }

package quest

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no quest of the requested kind has the id.
var ErrNotFound = errors.New("quest not found")

// ErrNotScheduled is returned when a recurring quest is completed on a
// weekday it does not repeat on.
var ErrNotScheduled = errors.New("quest does not repeat today")

// ValidationError reports bad user input. No state is changed when one
// is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// DailyCapError is returned when a new single quest would push its date
// past the daily point cap.
type DailyCapError struct {
	Date      string
	Cap       int
	Current   int
	Remaining int
}

func (e *DailyCapError) Error() string {
	if e.Remaining <= 0 {
		return fmt.Sprintf("the daily limit of %d points is already reached for %s", e.Cap, e.Date)
	}
	return fmt.Sprintf("only %d more points can be added for %s (daily limit %d)", e.Remaining, e.Date, e.Cap)
}

// IsValidation reports whether err is a ValidationError or DailyCapError.
func IsValidation(err error) bool {
	var ve *ValidationError
	var ce *DailyCapError
	return errors.As(err, &ve) || errors.As(err, &ce)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

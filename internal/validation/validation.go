package validation

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// dateInputLayout accepts one or two digit day and month with a four digit year
const dateInputLayout = "2-1-2006"

// Reason names why an input was rejected
type Reason string

const (
	ReasonNameRequired Reason = "name_required"
	ReasonDateFormat   Reason = "date_format"
	ReasonDatePast     Reason = "date_past"
	ReasonPrepRange    Reason = "prep_range"
)

// Error represents a validation error
type Error struct {
	Field   string
	Reason  Reason
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsReason reports whether err is a validation error with the given reason
func IsReason(err error, reason Reason) bool {
	var verr *Error
	return errors.As(err, &verr) && verr.Reason == reason
}

// Day returns the calendar day of t (in t's location) as midnight UTC, so
// that differences between days are whole multiples of 24 hours
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses day-month-year text such as "19-01-2027" or "9-1-2027"
func ParseDate(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	date, err := time.Parse(dateInputLayout, text)
	if err != nil {
		return time.Time{}, &Error{
			Field:   "date",
			Reason:  ReasonDateFormat,
			Message: fmt.Sprintf("%q is not a valid date, use DD-MM-YYYY", text),
		}
	}
	return date, nil
}

// ValidateName checks that an exam name is present
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &Error{Field: "name", Reason: ReasonNameRequired, Message: "name is required"}
	}
	return nil
}

// ValidateDate checks that text is a date no earlier than today
func ValidateDate(text string, today time.Time) (time.Time, error) {
	date, err := ParseDate(text)
	if err != nil {
		return time.Time{}, err
	}
	if date.Before(Day(today)) {
		return time.Time{}, &Error{
			Field:   "date",
			Reason:  ReasonDatePast,
			Message: fmt.Sprintf("%s is in the past", date.Format("02-01-2006")),
		}
	}
	return date, nil
}

// ValidatePrep checks that a preparation percentage is within 0..100
func ValidatePrep(prep int) error {
	if prep < 0 || prep > 100 {
		return &Error{
			Field:   "prep",
			Reason:  ReasonPrepRange,
			Message: fmt.Sprintf("preparation must be between 0 and 100, got %d", prep),
		}
	}
	return nil
}

// ValidateExam runs every check for a new exam and returns the first failure.
// The parsed date is returned on success.
func ValidateExam(name, dateText string, prep int, today time.Time) (time.Time, error) {
	if err := ValidateName(name); err != nil {
		return time.Time{}, err
	}
	date, err := ValidateDate(dateText, today)
	if err != nil {
		return time.Time{}, err
	}
	if err := ValidatePrep(prep); err != nil {
		return time.Time{}, err
	}
	return date, nil
}

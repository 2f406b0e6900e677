package services

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date format used by the backend and HTML date inputs.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(dateStr string) (time.Time, error) {
	parsedTime, err := time.Parse(DateLayout, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: expected YYYY-MM-DD")
	}
	return parsedTime, nil
}

// Today returns the calendar date procedures receive as p_fecha.
func Today() string {
	return time.Now().Format(DateLayout)
}

// dateOrNil returns nil for an empty date so the backend applies its default.
func dateOrNil(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// DateRange is an inclusive span of calendar dates.
type DateRange struct {
	From string `validate:"required,iso_date"`
	To   string `validate:"required,iso_date"`
}

// Validate checks both bounds and their order.
func (r DateRange) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	if r.From > r.To {
		return invalid("validation.range.order")
	}
	return nil
}

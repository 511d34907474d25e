package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the only date format accepted on read or write.
const DateLayout = "2006-01-02"

// MonthNames is indexed by month number; index 0 is the "All" label.
var MonthNames = [13]string{
	"All", "January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// Date is a calendar date without a time component. The zero value is
// not a valid date.
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a strict YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

func (d Date) Year() int          { return d.t.Year() }
func (d Date) Month() time.Month  { return d.t.Month() }
func (d Date) Day() int           { return d.t.Day() }
func (d Date) IsZero() bool       { return d.t.IsZero() }
func (d Date) Time() time.Time    { return d.t }
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) After(o Date) bool  { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool  { return d.t.Equal(o.t) }

// Compare returns -1, 0 or +1.
func (d Date) Compare(o Date) int { return d.t.Compare(o.t) }

// FirstOfMonth returns the first day of d's month.
func (d Date) FirstOfMonth() Date {
	return NewDate(d.Year(), d.Month(), 1)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date is required")
	}
	return nil
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DaysInMonth returns the number of days of month in year, honouring
// leap years. It panics on a month outside 1-12.
func DaysInMonth(year, month int) int {
	if month < 1 || month > 12 {
		panic(fmt.Sprintf("core: invalid month %d", month))
	}
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ParseMonth accepts "", "all", a number 1-12 or an English month name.
// It returns All for the first two.
func ParseMonth(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return All, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 || n > 12 {
			return 0, &ValidationError{Field: "month", Value: s, Err: ErrInvalidMonth}
		}
		return n, nil
	}
	for i := 1; i < len(MonthNames); i++ {
		name := MonthNames[i]
		if strings.EqualFold(s, name) || strings.EqualFold(s, name[:3]) {
			return i, nil
		}
	}
	return 0, &ValidationError{Field: "month", Value: s, Err: ErrInvalidMonth}
}

// ParseYear accepts "", "all" or a four digit year.
func ParseYear(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return All, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 9999 {
		return 0, &ValidationError{Field: "year", Value: s, Err: ErrInvalidYear}
	}
	return n, nil
}

// Clock supplies the current date. Services take one so tests can pin "today".
type Clock func() time.Time

// Today returns the current calendar date according to c, or the
// local wall clock when c is nil.
func (c Clock) Today() Date {
	if c == nil {
		return DateOf(time.Now())
	}
	return DateOf(c())
}

// FixedClock always reports d.
func FixedClock(d Date) Clock {
	return func() time.Time { return d.Time() }
}

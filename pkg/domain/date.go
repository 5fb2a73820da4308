package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// DateLayout is the on-disk representation of calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar day without time of day. The zero value means "unknown".
// A cell that could not be parsed is kept verbatim so it is written back as
// it was read.
type Date struct {
	t   time.Time
	raw string
}

// NewDate truncates t to its calendar day in t's location.
func NewDate(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	y, m, d := t.Date()
	return Date{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string. Blank input yields the zero date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t: t}, nil
}

// DecodeDate is ParseDate for stored cells: text that is not a valid date is
// retained verbatim instead of failing.
func DecodeDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		return Date{raw: strings.TrimSpace(s)}
	}
	return d
}

// MustParseDate is ParseDate for literals known to be valid.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool { return d.t.IsZero() && d.raw == "" }

// Unparsed reports whether the date holds stored text that is not YYYY-MM-DD.
func (d Date) Unparsed() bool { return d.raw != "" }

// Time returns the date at midnight UTC.
func (d Date) Time() time.Time { return d.t }

// Equal compares calendar days, or the retained text of unparsed dates.
func (d Date) Equal(other Date) bool { return d.t.Equal(other.t) && d.raw == other.raw }

// String formats the date as YYYY-MM-DD, the retained text of an unparsed
// date, or "" when unset.
func (d Date) String() string {
	if d.t.IsZero() {
		return d.raw
	}
	return d.t.Format(DateLayout)
}

// MarshalJSON encodes the date as a YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts a YYYY-MM-DD string, "" or null.
func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

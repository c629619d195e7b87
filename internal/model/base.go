package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and storage layout of calendar dates.
const DateLayout = "2006-01-02"

// ClockLayout is the canonical appointment time layout.
const ClockLayout = "15:04"

// CalendarDate is a day without a time of day, always held at UTC midnight.
type CalendarDate struct {
	time.Time
}

// NewCalendarDate truncates t to its calendar day in t's location.
func NewCalendarDate(t time.Time) CalendarDate {
	y, m, d := t.Date()
	return CalendarDate{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseCalendarDate parses YYYY-MM-DD. Full RFC 3339 timestamps are accepted
// and truncated to their date part.
func ParseCalendarDate(s string) (CalendarDate, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return NewCalendarDate(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return CalendarDate{}, fmt.Errorf("invalid date %q", s)
	}
	return NewCalendarDate(t), nil
}

func (d CalendarDate) String() string {
	return d.Format(DateLayout)
}

func (d CalendarDate) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *CalendarDate) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseCalendarDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Scan implements sql.Scanner for DATE columns.
func (d *CalendarDate) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*d = NewCalendarDate(v)
		return nil
	case string:
		parsed, err := ParseCalendarDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		return d.Scan(string(v))
	case nil:
		*d = CalendarDate{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into CalendarDate", src)
	}
}

// Value implements driver.Valuer.
func (d CalendarDate) Value() (driver.Value, error) {
	return d.String(), nil
}

// ParseClock accepts HH:MM or HH:MM:SS and returns the HH:MM form.
func ParseClock(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{ClockLayout, "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(ClockLayout), nil
		}
	}
	return "", fmt.Errorf("invalid time %q", s)
}

// Role is the coarse authorization class of an account.
type Role string

const (
	RolePatient Role = "patient"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	return r == RolePatient || r == RoleAdmin
}

// Actor is the authenticated principal behind a request.
type Actor struct {
	UserID int64
	Email  string
	Role   Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanAccess reports whether the actor may act on a record owned by ownerID.
func (a Actor) CanAccess(ownerID int64) bool {
	return a.IsAdmin() || a.UserID == ownerID
}

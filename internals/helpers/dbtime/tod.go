// file: internals/helpers/dbtime/tod.go
package dbtime

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

// Tod is a wall-clock time of day mapped to a postgres TIME column.
type Tod struct{ time.Time }

// ParseTod accepts "HH:MM" or "HH:MM:SS".
func ParseTod(s string) (Tod, error) {
	var t Tod
	return t, t.parse(s)
}

func (t *Tod) Scan(v any) error {
	switch x := v.(type) {
	case time.Time:
		t.Time = time.Date(0, 1, 1, x.Hour(), x.Minute(), x.Second(), 0, time.UTC)
		return nil
	case []byte:
		return t.parse(string(x))
	case string:
		return t.parse(x)
	case nil:
		t.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("tod: unsupported scan type %T", v)
	}
}

func (t *Tod) parse(s string) error {
	s = strings.TrimSpace(s)
	if len(s) == 5 {
		s += ":00"
	}
	tt, err := time.Parse("15:04:05", s)
	if err != nil {
		return fmt.Errorf("tod: %q is not HH:MM[:SS]", s)
	}
	t.Time = tt
	return nil
}

func (t Tod) Value() (driver.Value, error) {
	return t.Format("15:04:05"), nil
}

// String renders "HH:MM".
func (t Tod) String() string {
	return t.Format("15:04")
}

// AddMinutes shifts the time of day, wrapping at midnight.
func (t Tod) AddMinutes(m int) Tod {
	n := t.Add(time.Duration(m) * time.Minute)
	return Tod{Time: time.Date(0, 1, 1, n.Hour(), n.Minute(), n.Second(), 0, time.UTC)}
}

// On places the time of day on a calendar date in loc.
func (t Tod) On(date time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), 0, loc)
}

func (t Tod) MarshalJSON() ([]byte, error) {
	return sonic.Marshal(t.String())
}

func (t *Tod) UnmarshalJSON(b []byte) error {
	var s string
	if err := sonic.Unmarshal(b, &s); err != nil {
		return err
	}
	return t.parse(s)
}

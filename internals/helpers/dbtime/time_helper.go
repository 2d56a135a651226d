// file: internals/helpers/dbtime/time_helper.go
package dbtime

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	LocSedeTimezone = "sede_timezone" // string, e.g. "America/Lima"
	LocSedeLoc      = "sede_loc"      // *time.Location

	DateLayout = "2006-01-02"
)

var defaultLoc atomic.Pointer[time.Location]

// SetDefaultLocation sets the studio-wide timezone used when a request has
// no sede specific one.
func SetDefaultLocation(loc *time.Location) {
	if loc != nil {
		defaultLoc.Store(loc)
	}
}

func DefaultLocation() *time.Location {
	if loc := defaultLoc.Load(); loc != nil {
		return loc
	}
	return time.UTC
}

// GetStudioLocation resolves the request timezone:
// locals "sede_loc", then "sede_timezone", then the studio default.
func GetStudioLocation(c *fiber.Ctx) *time.Location {
	if c == nil {
		return DefaultLocation()
	}
	if v, ok := c.Locals(LocSedeLoc).(*time.Location); ok && v != nil {
		return v
	}
	if s, ok := c.Locals(LocSedeTimezone).(string); ok && strings.TrimSpace(s) != "" {
		if loc, err := time.LoadLocation(strings.TrimSpace(s)); err == nil {
			c.Locals(LocSedeLoc, loc)
			return loc
		}
	}
	return DefaultLocation()
}

// DateOf truncates t to its calendar date in loc. The result is midnight UTC
// so it compares cleanly with postgres DATE columns.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today is the current calendar date in loc.
func Today(loc *time.Location) time.Time {
	return DateOf(time.Now(), loc)
}

// ParseDate parses an ISO date ("2006-01-02").
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// FormatDate renders a calendar date as ISO.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ISOWeekday returns 1 (Monday) .. 7 (Sunday).
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// SameDate compares calendar dates ignoring clock and zone.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

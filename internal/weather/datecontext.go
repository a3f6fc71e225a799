// internal/weather/datecontext.go
//
// Timezone-aware day labeling and weekday classification.
//
// Context
// -------
// Every weather story names the day it describes, in the recipient's zone.
// Editorial rule: never render a bare "tomorrow".  Same-day is "Today", the
// next day is "Tomorrow (Mon)", and anything farther out is the full weekday
// name.  The Fahrenheit-country set decides which unit leads in copy.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package weather

import (
	"fmt"
	"strings"
	"time"
)

// DateContext pins "now" to one recipient's timezone for day math.
type DateContext struct {
	now time.Time
	loc *time.Location
}

// NewDateContext builds a DateContext for tz at the given instant.
func NewDateContext(now time.Time, tz string) (DateContext, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return DateContext{}, fmt.Errorf("load location %q: %w", tz, err)
	}
	return DateContext{now: now.In(loc), loc: loc}, nil
}

// Now returns the pinned local instant.
func (d DateContext) Now() time.Time { return d.now }

// Today returns local midnight of the current day.
func (d DateContext) Today() time.Time {
	y, m, day := d.now.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, d.loc)
}

// Tomorrow returns local midnight of the next day.
func (d DateContext) Tomorrow() time.Time { return d.Today().AddDate(0, 0, 1) }

// Weekday returns the local weekday.
func (d DateContext) Weekday() time.Weekday { return d.now.Weekday() }

// IsWeekday reports whether t falls Monday through Friday.
func (d DateContext) IsWeekday(t time.Time) bool {
	wd := t.In(d.loc).Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// DayLabel renders the editorial label for target: "Today",
// "Tomorrow (Mon)", or the full weekday name.  Never a bare "Tomorrow".
// Day distance is counted in calendar dates, not elapsed hours; a DST
// transition makes a local day 23 or 25 hours long and must not shift the
// label.
func (d DateContext) DayLabel(target time.Time) string {
	t := target.In(d.loc)
	switch {
	case sameDate(t, d.now):
		return "Today"
	case sameDate(t, d.Tomorrow()):
		return "Tomorrow (" + t.Weekday().String()[:3] + ")"
	default:
		return t.Weekday().String()
	}
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

//
// Units
//

// fahrenheitCountries is the fixed set of countries where °F leads in copy.
var fahrenheitCountries = map[string]bool{
	"united states":  true,
	"usa":            true,
	"us":             true,
	"bahamas":        true,
	"belize":         true,
	"cayman islands": true,
	"liberia":        true,
	"palau":          true,
}

// UsesFahrenheit reports whether country prefers Fahrenheit-first copy.
func UsesFahrenheit(country string) bool {
	return fahrenheitCountries[strings.ToLower(strings.TrimSpace(country))]
}

// CToF converts Celsius to Fahrenheit.
func CToF(c float64) float64 { return c*9/5 + 32 }

// FormatTemp renders a temperature with the country's primary unit first,
// e.g. "95°F (35°C)" in the United States and "35°C" elsewhere.
func FormatTemp(c float64, country string) string {
	if UsesFahrenheit(country) {
		return fmt.Sprintf("%.0f°F (%.0f°C)", CToF(c), c)
	}
	return fmt.Sprintf("%.0f°C", c)
}

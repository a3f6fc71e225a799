package weather

import "time"

// Day is one daily forecast row.  Temperatures are Celsius, precipitation is
// millimetres, and snowfall is centimetres, matching the upstream units.
type Day struct {
	Date     time.Time
	MaxC     float64
	MinC     float64
	PrecipMM float64
	SnowCM   float64
}

// HourlyProb is one hourly precipitation-probability sample (0–100).
type HourlyProb struct {
	Time        time.Time
	Probability float64
}

// Forecast is the 3-day outlook for one coordinate pair.
type Forecast struct {
	CurrentC float64
	Days     []Day
	Hourly   []HourlyProb
}

// Snapshot returns the raw current-conditions display used when no story
// fires.
func Snapshot(f *Forecast) *Current {
	if f == nil {
		return nil
	}
	return &Current{TempC: f.CurrentC, TempF: CToF(f.CurrentC)}
}

// DayFor returns the forecast row whose date matches target's calendar day,
// or nil when target is outside the horizon.
func (f *Forecast) DayFor(target time.Time) *Day {
	y, m, d := target.Date()
	for i := range f.Days {
		dy, dm, dd := f.Days[i].Date.Date()
		if dy == y && dm == m && dd == d {
			return &f.Days[i]
		}
	}
	return nil
}

// AvgProbability averages the hourly precipitation probability over
// [startHour, endHour] (inclusive) on target's calendar day.  The second
// return is false when no samples fall in the window.
func (f *Forecast) AvgProbability(target time.Time, startHour, endHour int) (float64, bool) {
	y, m, d := target.Date()
	var sum float64
	var n int
	for _, h := range f.Hourly {
		hy, hm, hd := h.Time.Date()
		if hy != y || hm != m || hd != d {
			continue
		}
		hr := h.Time.Hour()
		if hr < startHour || hr > endHour {
			continue
		}
		sum += h.Probability
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// internal/weather/engine.go
//
// Weather story engine.
//
// Context
// -------
// The digest shows at most one editorial weather story per recipient per
// run.  Four rule tiers are evaluated in strict priority order and the
// first hit wins:
//
//	1. Safety/extreme   – heavy snow or dangerous heat, tomorrow then today.
//	2. Commute/lunch    – rain probability over the three travel windows,
//	                      only when tomorrow is a local weekday.
//	3. Weekend outlook  – Thursday/Friday look-ahead at Saturday (and
//	                      Sunday on Fridays).
//	4. General anomaly  – tomorrow's high far from the monthly normal.
//
// The engine is a pure decision tree over an already-fetched Forecast; the
// caller falls back to the raw current-conditions snapshot when it returns
// nil.
//
// Notes
// -----
// • Day labels always come from DateContext; never a bare "tomorrow".
// • Oxford commas, two spaces after periods.
package weather

import (
	"fmt"
	"time"
)

//
// Priority variant
//

// Priority is the closed set of story tiers; lower is more urgent.
type Priority int

const (
	PrioritySafety  Priority = 1
	PriorityCommute Priority = 2
	PriorityWeekend Priority = 3
	PriorityAnomaly Priority = 4
)

// String returns the tier label for metrics and logs.
func (p Priority) String() string {
	switch p {
	case PrioritySafety:
		return "safety"
	case PriorityCommute:
		return "commute"
	case PriorityWeekend:
		return "weekend"
	case PriorityAnomaly:
		return "anomaly"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// Story is one editorial weather alert.
type Story struct {
	Priority Priority
	Headline string
	Body     string
	Icon     string
	DayLabel string
	TempC    float64
	TempF    float64
}

// Current is the raw current-conditions snapshot shown when no story fires.
type Current struct {
	TempC float64
	TempF float64
}

//
// Rule thresholds
//

const (
	blizzardSnowCM = 10.0
	heatMaxC       = 35.0

	commuteMorningPct = 60.0
	commuteLunchPct   = 50.0
	commuteEveningPct = 60.0

	weekendWetMM    = 5.0
	weekendDryMM    = 1.0
	weekendWarmC    = 2.0
	anomalyDeltaC   = 5.0
)

// GenerateStory runs the decision tree for one recipient's primary
// neighborhood.  It returns nil when no rule fires; callers then fall back
// to the plain current-conditions display.
func GenerateStory(f *Forecast, dc DateContext, city, country string) *Story {
	if f == nil || len(f.Days) == 0 {
		return nil
	}

	if s := safetyStory(f, dc, country); s != nil {
		return s
	}
	if s := commuteStory(f, dc); s != nil {
		return s
	}
	if s := weekendStory(f, dc, city, country); s != nil {
		return s
	}
	return anomalyStory(f, dc, city, country)
}

/*──────────────────────── tier 1: safety/extreme ───────────────────────────*/

// safetyStory examines tomorrow first, then today.  Tomorrow is checked
// first because the digest lands in the morning: an overnight blizzard is
// actionable, yesterday's was not.
func safetyStory(f *Forecast, dc DateContext, country string) *Story {
	for _, target := range []time.Time{dc.Tomorrow(), dc.Today()} {
		day := f.DayFor(target)
		if day == nil {
			continue
		}
		label := dc.DayLabel(target)
		if day.SnowCM > blizzardSnowCM {
			return &Story{
				Priority: PrioritySafety,
				Headline: fmt.Sprintf("Heavy snow expected %s", lowerToday(label)),
				Body: fmt.Sprintf("Forecasts call for %.0f cm of snow %s.  Plan for slow travel and check on neighbors.",
					day.SnowCM, lowerToday(label)),
				Icon:     "snow",
				DayLabel: label,
				TempC:    day.MaxC,
				TempF:    CToF(day.MaxC),
			}
		}
		if day.MaxC > heatMaxC {
			return &Story{
				Priority: PrioritySafety,
				Headline: fmt.Sprintf("Dangerous heat %s: highs near %s", lowerToday(label), FormatTemp(day.MaxC, country)),
				Body: fmt.Sprintf("Temperatures reach %s %s.  Limit time outdoors in the afternoon and drink water early.",
					FormatTemp(day.MaxC, country), lowerToday(label)),
				Icon:     "heat",
				DayLabel: label,
				TempC:    day.MaxC,
				TempF:    CToF(day.MaxC),
			}
		}
	}
	return nil
}

/*──────────────────────── tier 2: commute/lunch ────────────────────────────*/

type commuteWindow struct {
	name       string
	start, end int
	threshold  float64
}

// commuteStory fires when tomorrow is a weekday and one of the three travel
// windows crosses its rain-probability threshold.  First window wins.
func commuteStory(f *Forecast, dc DateContext) *Story {
	tomorrow := dc.Tomorrow()
	if !dc.IsWeekday(tomorrow) {
		return nil
	}

	windows := []commuteWindow{
		{"morning commute", 8, 10, commuteMorningPct},
		{"lunch hour", 12, 14, commuteLunchPct},
		{"evening commute", 17, 19, commuteEveningPct},
	}

	label := dc.DayLabel(tomorrow)
	for _, w := range windows {
		avg, ok := f.AvgProbability(tomorrow, w.start, w.end)
		if !ok || avg <= w.threshold {
			continue
		}
		var temp float64
		if day := f.DayFor(tomorrow); day != nil {
			temp = day.MaxC
		}
		return &Story{
			Priority: PriorityCommute,
			Headline: fmt.Sprintf("Rain likely during the %s %s", w.name, lowerToday(label)),
			Body: fmt.Sprintf("There is a %.0f%% chance of rain during the %s %s.  An umbrella earns its keep.",
				avg, w.name, lowerToday(label)),
			Icon:     "rain",
			DayLabel: label,
			TempC:    temp,
			TempF:    CToF(temp),
		}
	}
	return nil
}

/*──────────────────────── tier 3: weekend outlook ──────────────────────────*/

// weekendStory runs only on Thursday or Friday local time and looks at
// Saturday (plus Sunday when evaluated on Friday, since Sunday is then
// inside the 3-day horizon).
func weekendStory(f *Forecast, dc DateContext, city, country string) *Story {
	wd := dc.Weekday()
	if wd != time.Thursday && wd != time.Friday {
		return nil
	}

	var saturday time.Time
	for i := 1; i <= 2; i++ {
		d := dc.Today().AddDate(0, 0, i)
		if d.Weekday() == time.Saturday {
			saturday = d
			break
		}
	}
	sat := f.DayFor(saturday)
	if saturday.IsZero() || sat == nil {
		return nil
	}

	var sun *Day
	if wd == time.Friday {
		sun = f.DayFor(saturday.AddDate(0, 0, 1))
	}

	satLabel := dc.DayLabel(saturday)
	if sat.PrecipMM > weekendWetMM {
		span := satLabel
		if sun != nil && sun.PrecipMM > weekendWetMM {
			span = "the whole weekend"
		}
		return &Story{
			Priority: PriorityWeekend,
			Headline: fmt.Sprintf("Wet weekend ahead: rain for %s", span),
			Body: fmt.Sprintf("Expect %.0f mm of rain on %s.  A good stretch for museums and long lunches.",
				sat.PrecipMM, satLabel),
			Icon:     "rain",
			DayLabel: satLabel,
			TempC:    sat.MaxC,
			TempF:    CToF(sat.MaxC),
		}
	}

	normal, ok := NormalHigh(city, saturday.Month())
	if ok && sat.MaxC > normal+weekendWarmC && sat.PrecipMM < weekendDryMM {
		return &Story{
			Priority: PriorityWeekend,
			Headline: fmt.Sprintf("%s looks great: sunny and %s", satLabel, FormatTemp(sat.MaxC, country)),
			Body: fmt.Sprintf("Highs around %s with little chance of rain on %s, warmer than usual for this time of year.",
				FormatTemp(sat.MaxC, country), satLabel),
			Icon:     "sun",
			DayLabel: satLabel,
			TempC:    sat.MaxC,
			TempF:    CToF(sat.MaxC),
		}
	}
	return nil
}

/*──────────────────────── tier 4: general anomaly ──────────────────────────*/

// anomalyStory compares tomorrow's high against the monthly normal and fires
// beyond a ±5 °C delta.
func anomalyStory(f *Forecast, dc DateContext, city, country string) *Story {
	tomorrow := dc.Tomorrow()
	day := f.DayFor(tomorrow)
	if day == nil {
		return nil
	}
	normal, ok := NormalHigh(city, tomorrow.Month())
	if !ok {
		return nil
	}

	delta := day.MaxC - normal
	label := dc.DayLabel(tomorrow)
	switch {
	case delta > anomalyDeltaC:
		return &Story{
			Priority: PriorityAnomaly,
			Headline: fmt.Sprintf("Unseasonably warm %s: %s", lowerToday(label), FormatTemp(day.MaxC, country)),
			Body: fmt.Sprintf("%s runs about %.0f° above the seasonal average, with highs near %s.",
				label, delta, FormatTemp(day.MaxC, country)),
			Icon:     "warm",
			DayLabel: label,
			TempC:    day.MaxC,
			TempF:    CToF(day.MaxC),
		}
	case delta < -anomalyDeltaC:
		return &Story{
			Priority: PriorityAnomaly,
			Headline: fmt.Sprintf("A cold snap %s: highs only %s", lowerToday(label), FormatTemp(day.MaxC, country)),
			Body: fmt.Sprintf("%s runs about %.0f° below the seasonal average, with highs near %s.  Layer up before heading out.",
				label, -delta, FormatTemp(day.MaxC, country)),
			Icon:     "cold",
			DayLabel: label,
			TempC:    day.MaxC,
			TempF:    CToF(day.MaxC),
		}
	}
	return nil
}

/*──────────────────────────── helpers ──────────────────────────────────────*/

// lowerToday keeps "Today" readable mid-sentence while leaving labels like
// "Tomorrow (Sat)" and "Saturday" alone at the start of a clause.
func lowerToday(label string) string {
	if label == "Today" {
		return "today"
	}
	if len(label) > 8 && label[:8] == "Tomorrow" {
		return "tomorrow" + label[8:]
	}
	return "on " + label
}

// internal/weather/engine_test.go
//
// Unit-tests for the weather story decision tree.
//
// Context
// -------
// The engine is a pure function over a Forecast and a DateContext, so the
// tests pin "now" to fixed instants and assert which tier fires:
//
//   • Safety outranks every other tier, and tomorrow outranks today.
//   • Commute fires only when tomorrow is a local weekday.
//   • Weekend runs only on Thursday/Friday.
//   • Anomaly needs a climate-normals entry for the city.
//
// Run: go test ./internal/weather -v

package weather

import (
	"strings"
	"testing"
	"time"
)

// wednesday is a mid-week anchor: 2025-06-11 09:00 UTC.
var wednesday = time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)

// makeForecast builds a 3-day outlook starting at dc.Today() with quiet
// defaults; tests then overwrite individual days.
func makeForecast(dc DateContext) *Forecast {
	f := &Forecast{CurrentC: 18}
	for i := 0; i < 3; i++ {
		f.Days = append(f.Days, Day{
			Date: dc.Today().AddDate(0, 0, i),
			MaxC: 20,
			MinC: 12,
		})
	}
	return f
}

func mustDateContext(t *testing.T, now time.Time) DateContext {
	t.Helper()
	dc, err := NewDateContext(now, "UTC")
	if err != nil {
		t.Fatalf("NewDateContext: %v", err)
	}
	return dc
}

func TestGenerateStory_SafetyOutranksAnomaly(t *testing.T) {
	dc := mustDateContext(t, wednesday)
	f := makeForecast(dc)
	// Tomorrow: blizzard AND a huge warm anomaly for Paris.  Safety must win.
	f.Days[1].SnowCM = 15
	f.Days[1].MaxC = 32

	s := GenerateStory(f, dc, "Paris", "France")
	if s == nil {
		t.Fatal("expected a story, got nil")
	}
	if s.Priority != PrioritySafety {
		t.Fatalf("priority = %s, want safety", s.Priority)
	}
	if s.Icon != "snow" {
		t.Fatalf("icon = %q, want snow", s.Icon)
	}
	if s.DayLabel != "Tomorrow (Thu)" {
		t.Fatalf("day label = %q, want Tomorrow (Thu)", s.DayLabel)
	}
}

func TestSafetyStory_TomorrowBeforeToday(t *testing.T) {
	dc := mustDateContext(t, wednesday)
	f := makeForecast(dc)
	f.Days[0].MaxC = 38    // dangerous heat today
	f.Days[1].SnowCM = 12  // blizzard tomorrow

	s := GenerateStory(f, dc, "New York", "USA")
	if s == nil {
		t.Fatal("expected a story, got nil")
	}
	if s.Icon != "snow" || s.DayLabel != "Tomorrow (Thu)" {
		t.Fatalf("got %q on %q, want tomorrow's snow story", s.Icon, s.DayLabel)
	}
}

func TestSafetyStory_HeatUsesCountryUnits(t *testing.T) {
	dc := mustDateContext(t, wednesday)
	f := makeForecast(dc)
	f.Days[1].MaxC = 36

	s := GenerateStory(f, dc, "Miami", "USA")
	if s == nil || s.Priority != PrioritySafety {
		t.Fatalf("expected safety story, got %+v", s)
	}
	if !strings.Contains(s.Headline, "°F") || !strings.Contains(s.Headline, "°C") {
		t.Fatalf("US headline should lead with °F and carry °C: %q", s.Headline)
	}
}

func TestCommuteStory_MorningWindow(t *testing.T) {
	dc := mustDateContext(t, wednesday)
	f := makeForecast(dc)
	tomorrow := dc.Tomorrow()
	for hr := 8; hr <= 10; hr++ {
		f.Hourly = append(f.Hourly, HourlyProb{
			Time:        tomorrow.Add(time.Duration(hr) * time.Hour),
			Probability: 75,
		})
	}

	s := GenerateStory(f, dc, "London", "United Kingdom")
	if s == nil {
		t.Fatal("expected a commute story, got nil")
	}
	if s.Priority != PriorityCommute {
		t.Fatalf("priority = %s, want commute", s.Priority)
	}
	if !strings.Contains(s.Headline, "morning commute") {
		t.Fatalf("headline = %q, want morning commute", s.Headline)
	}
	if s.DayLabel != "Tomorrow (Thu)" {
		t.Fatalf("day label = %q", s.DayLabel)
	}
}

func TestCommuteStory_SkipsWhenTomorrowIsWeekend(t *testing.T) {
	// Friday: tomorrow is Saturday, so commute must not fire even with a
	// drenched morning window.
	friday := time.Date(2025, 6, 13, 9, 0, 0, 0, time.UTC)
	dc := mustDateContext(t, friday)
	f := makeForecast(dc)
	tomorrow := dc.Tomorrow()
	for hr := 8; hr <= 10; hr++ {
		f.Hourly = append(f.Hourly, HourlyProb{
			Time:        tomorrow.Add(time.Duration(hr) * time.Hour),
			Probability: 90,
		})
	}

	if s := commuteStory(f, dc); s != nil {
		t.Fatalf("commute story fired on a Saturday: %+v", s)
	}
}

func TestWeekendStory_WetSaturday(t *testing.T) {
	thursday := time.Date(2025, 6, 12, 9, 0, 0, 0, time.UTC)
	dc := mustDateContext(t, thursday)
	f := makeForecast(dc)
	f.Days[2].PrecipMM = 8 // Saturday, two days out

	s := GenerateStory(f, dc, "Copenhagen", "Denmark")
	if s == nil {
		t.Fatal("expected a weekend story, got nil")
	}
	if s.Priority != PriorityWeekend {
		t.Fatalf("priority = %s, want weekend", s.Priority)
	}
	if s.DayLabel != "Saturday" {
		t.Fatalf("day label = %q, want Saturday", s.DayLabel)
	}
	if s.Icon != "rain" {
		t.Fatalf("icon = %q, want rain", s.Icon)
	}
}

func TestWeekendStory_OnlyThursdayFriday(t *testing.T) {
	dc := mustDateContext(t, wednesday)
	f := makeForecast(dc)
	f.Days[2].PrecipMM = 8 // Friday in this frame, but the gate is the weekday

	if s := weekendStory(f, dc, "Copenhagen", "Denmark"); s != nil {
		t.Fatalf("weekend story fired on a Wednesday: %+v", s)
	}
}

func TestAnomalyStory_WarmDelta(t *testing.T) {
	dc := mustDateContext(t, wednesday)
	f := makeForecast(dc)
	f.Days[1].MaxC = 30 // Paris June normal is 23.6

	s := GenerateStory(f, dc, "Paris", "France")
	if s == nil {
		t.Fatal("expected an anomaly story, got nil")
	}
	if s.Priority != PriorityAnomaly {
		t.Fatalf("priority = %s, want anomaly", s.Priority)
	}
	if s.Icon != "warm" {
		t.Fatalf("icon = %q, want warm", s.Icon)
	}
	if strings.Contains(s.Headline, "°F") {
		t.Fatalf("metric country headline carries °F: %q", s.Headline)
	}
}

func TestAnomalyStory_ColdDelta(t *testing.T) {
	dc := mustDateContext(t, wednesday)
	f := makeForecast(dc)
	f.Days[1].MaxC = 8 // Paris June normal is 23.6

	s := GenerateStory(f, dc, "Paris", "France")
	if s == nil {
		t.Fatal("expected an anomaly story, got nil")
	}
	if s.Icon != "cold" {
		t.Fatalf("icon = %q, want cold", s.Icon)
	}
	want := "Tomorrow (Thu) runs about 16° below the seasonal average, with highs near 8°C.  Layer up before heading out."
	if s.Body != want {
		t.Fatalf("body = %q, want %q", s.Body, want)
	}
}

func TestAnomalyStory_NeedsNormals(t *testing.T) {
	dc := mustDateContext(t, wednesday)
	f := makeForecast(dc)
	f.Days[1].MaxC = 30

	if s := GenerateStory(f, dc, "Atlantis", "Greece"); s != nil {
		t.Fatalf("anomaly fired without a normals entry: %+v", s)
	}
}

func TestGenerateStory_NilOnQuietForecast(t *testing.T) {
	dc := mustDateContext(t, wednesday)
	f := makeForecast(dc)
	// 20 °C against Paris's June 23.6 normal: inside the anomaly band.

	if s := GenerateStory(f, dc, "Paris", "France"); s != nil {
		t.Fatalf("expected nil story, got %+v", s)
	}
	if cur := Snapshot(f); cur == nil || cur.TempC != 18 {
		t.Fatalf("snapshot fallback wrong: %+v", cur)
	}
}

func TestAvgProbability_WindowInclusive(t *testing.T) {
	dc := mustDateContext(t, wednesday)
	day := dc.Tomorrow()
	f := &Forecast{Hourly: []HourlyProb{
		{Time: day.Add(7 * time.Hour), Probability: 100}, // outside
		{Time: day.Add(8 * time.Hour), Probability: 40},
		{Time: day.Add(10 * time.Hour), Probability: 80},
		{Time: day.Add(11 * time.Hour), Probability: 100}, // outside
	}}

	avg, ok := f.AvgProbability(day, 8, 10)
	if !ok {
		t.Fatal("expected samples in window")
	}
	if avg != 60 {
		t.Fatalf("avg = %v, want 60", avg)
	}

	if _, ok := f.AvgProbability(day.AddDate(0, 0, 5), 8, 10); ok {
		t.Fatal("expected no samples outside the horizon")
	}
}

// internal/config/model.go
//
// Typed configuration model for the digest pipeline.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                         – dotenv values,
//   • `conf/digest.yaml`                      – primary static file,
//   • `DIGEST_`-prefixed environment overrides – highest precedence.
//
// Validation happens immediately after unmarshal; the job fails fast if
// required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`—Koanf ignores `yaml` tags
//     unless configured otherwise.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import (
	"strings"
	"time"
)

//
// Database section
//

// Database holds the MySQL DSN and pool tunables.  The batch job keeps one
// process-wide pool; per-run concurrency is bounded by Digest.Workers, so the
// defaults are deliberately small.
type Database struct {
	DSN      string `koanf:"dsn" validate:"required"`
	MaxOpen  int    `koanf:"max_open"`
	MaxIdle  int    `koanf:"max_idle"`
}

//
// Forecast section
//

// Forecast configures the outbound weather API client.
type Forecast struct {
	BaseURL string        `koanf:"base_url" validate:"required,url"`
	Timeout time.Duration `koanf:"timeout"`
}

//
// Delivery section
//

// Delivery configures the render-and-deliver service client.  APIKey may be
// a literal or a `vault:` reference; the loader resolves references before
// the client sees them.
type Delivery struct {
	BaseURL string        `koanf:"base_url" validate:"required,url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`
}

//
// Digest section
//

// Digest holds the scheduling and content knobs for the daily brief run.
//
// TargetHour is the recipient-local wall-clock hour the scheduled run aims
// for.  WeekendEditionDay names the weekday whose scheduled slot is taken by
// a different periodic edition; on-demand resends are skipped that day.
type Digest struct {
	TargetHour          int    `koanf:"target_hour" validate:"min=0,max=23"`
	WeekendEditionDay   string `koanf:"weekend_edition_day"`
	PrimaryStoryLimit   int    `koanf:"primary_story_limit" validate:"min=1"`
	SatelliteStoryLimit int    `koanf:"satellite_story_limit" validate:"min=1"`
	Workers             int    `koanf:"workers" validate:"min=1"`
	ResendDailyCap      int    `koanf:"resend_daily_cap" validate:"min=1"`
	GlobalDailyCap      int    `koanf:"global_daily_cap" validate:"min=1"`
}

// EditionWeekday decodes WeekendEditionDay; unrecognised values fall back to
// Sunday rather than silently enabling resends seven days a week.
func (d Digest) EditionWeekday() time.Weekday {
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if strings.EqualFold(d.WeekendEditionDay, wd.String()) {
			return wd
		}
	}
	return time.Sunday
}

//
// Ops section
//

// Ops configures the non-product HTTP listener (/metrics, /healthz).
type Ops struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
}

//
// Log section
//

// Log holds logger tunables.
type Log struct {
	Level string `koanf:"level"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime—never set in YAML or env.  The loader
// discovers `Root` (repo root or DIGEST_ROOT override) so later code can
// build absolute file paths.
type Paths struct {
	Root string // DIGEST_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the job lifetime.
type Config struct {
	Database Database `koanf:"database"`
	Forecast Forecast `koanf:"forecast"`
	Delivery Delivery `koanf:"delivery"`
	Digest   Digest   `koanf:"digest"`
	Ops      Ops      `koanf:"ops"`
	Log      Log      `koanf:"log"`
	Paths    Paths    `koanf:"-"` // not loaded from config files
}

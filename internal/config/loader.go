// internal/config/loader.go
//
// Configuration loader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from three layers (highest
precedence last):

  1. Optional `.env` file — `<root>/conf/.env`.
  2. `conf/digest.yaml`.
  3. Environment variables prefixed `DIGEST_`, where `__` maps to “.”
     (e.g., `DIGEST_DATABASE__DSN → database.dsn`).

After merging, the tree is unmarshalled into strongly-typed structs,
defaulted, validated, enriched with the runtime root path, and cached in an
`atomic.Pointer` for lock-free reads.  `Reload()` simply calls `Load()`
again and swaps the pointer.

Instrumentation
---------------
  • DEBUG spans — root discovery, YAML read, env overlay.
  • ERROR spans — YAML parse, env overlay, unmarshal, validation failures.
  • INFO  span  — final “config loaded” with key highlights.
  • Logs use the global *sugared* logger (`zap.S()`) so early boot issues
    surface even before the file logger is installed (bootstrap console).

Notes
-----
  • `rootDir()` climbs the cwd tree until it finds `conf/digest.yaml`;
    this lets `go run ./cmd/digest` work from any sub-directory.
  • Oxford commas, two spaces after periods.
*/
package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

var current atomic.Pointer[Config]

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves DIGEST_ROOT or climbs directories until conf/digest.yaml
// is found.  Falls back to executable heuristic for production layout.
func rootDir() string {
	if r := os.Getenv("DIGEST_ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "digest.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads .env, YAML, env overrides, defaults, validates, and caches
// Config.
func Load() (*Config, error) {
	root := rootDir()
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", "digest.yaml")
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
		return nil, err
	}
	zap.S().Debugw("config yaml loaded", "file", yamlPath)

	// Env overrides: DIGEST_DATABASE__DSN → database.dsn
	if err := k.Load(env.Provider("DIGEST_", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}

	cfg.Paths.Root = root
	applyDefaults(&cfg, k)
	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"target_hour", cfg.Digest.TargetHour,
		"ops_addr", cfg.Ops.ListenAddr,
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

// applyDefaults fills zero values before validation so a minimal YAML file
// still yields a runnable job.  TargetHour checks key presence instead of the
// zero value, since 0 (midnight) is a legitimate target hour.
func applyDefaults(c *Config, k *koanf.Koanf) {
	if c.Database.MaxOpen == 0 {
		c.Database.MaxOpen = 15
	}
	if c.Database.MaxIdle == 0 {
		c.Database.MaxIdle = 5
	}
	if c.Forecast.Timeout == 0 {
		c.Forecast.Timeout = 10 * time.Second
	}
	if c.Delivery.Timeout == 0 {
		c.Delivery.Timeout = 30 * time.Second
	}
	if !k.Exists("digest.target_hour") {
		c.Digest.TargetHour = 7
	}
	if c.Digest.WeekendEditionDay == "" {
		c.Digest.WeekendEditionDay = "Sunday"
	}
	if c.Digest.PrimaryStoryLimit == 0 {
		c.Digest.PrimaryStoryLimit = 5
	}
	if c.Digest.SatelliteStoryLimit == 0 {
		c.Digest.SatelliteStoryLimit = 3
	}
	if c.Digest.Workers == 0 {
		c.Digest.Workers = 8
	}
	if c.Digest.ResendDailyCap == 0 {
		c.Digest.ResendDailyCap = 3
	}
	if c.Digest.GlobalDailyCap == 0 {
		c.Digest.GlobalDailyCap = 5
	}
	if c.Ops.ListenAddr == "" {
		c.Ops.ListenAddr = ":9090"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func Get() *Config  { return current.Load() }
func Reload() error { _, err := Load(); return err }

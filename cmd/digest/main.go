// cmd/digest/main.go
//
// Daily-brief digest job – entry point.
//
// Boot sequence
// -------------
//
//  1. Load env vars (jail-wide file → .env fallback), then layered config.
//
//  2. Start daily rotating logger (tees to console when running in a TTY).
//
//  3. Open the content DB and log active-neighborhood count.
//
//  4. Wire the pipeline: neighborhood cache, recipient resolver, weather
//     client, content assembler, ad allocator, rate limiter, sender, and
//     the resend orchestrator.
//
//  5. Start the ops listener: /metrics, /healthz, and the resend hook the
//     preference-change webhooks call.
//
//  6. Run: `-once` performs a single scheduled pass and exits; otherwise
//     the hourly loop runs until SIGINT/SIGTERM.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/ads"
	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/config"
	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/content"
	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/database"
	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/delivery"
	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/logger"
	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/neighborhood"
	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/ratelimit"
	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/recipient"
	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/resend"
	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/scheduler"
	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/sender"
	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/sendlog"
	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/server"
	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/vault"
	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/weather"
)

const serverEnvPath = "/usr/local/etc/readflaneur/digest.env"

// loadEnv prefers the jail-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { loadEnv() }

func main() {
	once := flag.Bool("once", false, "run one scheduled pass and exit")
	flag.Parse()

	//
	// ── 1.  Config + logger ─────────────────────────────────────────────
	//
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logOut, err := logger.New(cfg.Paths.Root, cfg.Log.Level, runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	defer func() { _ = logOut.Sync() }()

	// Swap vault: references for their secrets before anything connects.
	if cfg.HasVaultRefs() {
		vaultCtx, cancelVault := context.WithTimeout(context.Background(), 15*time.Second)
		vc, err := vault.New(context.Background(), logOut)
		if err != nil {
			logOut.Fatalf("vault client: %v", err)
		}
		if err := config.ResolveSecrets(vaultCtx, cfg, vc); err != nil {
			logOut.Fatalf("resolve secrets: %v", err)
		}
		cancelVault()
		logOut.Info("vault secrets resolved")
	}

	//
	// ── 2.  Content DB connect ──────────────────────────────────────────
	//
	logOut.Info("connecting to content DB …")
	db, err := database.OpenWithOptions(cfg.Database.DSN, cfg.Database.MaxOpen, cfg.Database.MaxIdle)
	if err != nil {
		logOut.Fatalf("connect content DB: %v", err)
	}
	defer db.Close()
	logOut.Info("content DB online")

	// Log active-neighborhood count as an early sanity check.
	ctxBoot, cancelBoot := context.WithTimeout(context.Background(), 5*time.Second)
	if n, err := neighborhood.ActiveCount(ctxBoot, db); err == nil {
		logOut.Infof("%d active neighborhood(s) found", n)
	}
	cancelBoot()

	//
	// ── 3.  Pipeline wiring ─────────────────────────────────────────────
	//
	clock := clockwork.NewRealClock()

	hoods := neighborhood.NewCache(db)
	defer hoods.Close()
	cities := &neighborhood.CityLookup{DB: db}

	store := &recipient.SQLStore{DB: db}
	sends := sendlog.NewRepository(db)
	resolver := recipient.NewResolver(store, cities, sends, clock, logOut,
		cfg.Digest.TargetHour, sendlog.TypeDaily)

	forecasts := weather.NewCachedSource(
		weather.NewClient(cfg.Forecast.BaseURL, cfg.Forecast.Timeout, logOut),
		256, clock)

	adRepo := ads.NewRepository(db)
	allocator := ads.NewAllocator(adRepo, &ads.SQLDirectory{DB: db}, logOut)

	assembler := content.NewAssembler(content.NewRepository(db), hoods, forecasts,
		allocator, clock, logOut, content.Limits{
			PrimaryStories:   cfg.Digest.PrimaryStoryLimit,
			SatelliteStories: cfg.Digest.SatelliteStoryLimit,
		})

	limiter := ratelimit.New(sends, logOut, cfg.Digest.ResendDailyCap, cfg.Digest.GlobalDailyCap)
	transport := delivery.NewClient(cfg.Delivery.BaseURL, cfg.Delivery.APIKey,
		cfg.Delivery.Timeout, logOut)
	digestSender := sender.New(transport, sends, adRepo, limiter, logOut)

	runner := scheduler.New(resolver, assembler, digestSender, clock, logOut, cfg.Digest.Workers)
	resender := resend.New(store, cities, assembler, digestSender, limiter, sends,
		transport, clock, logOut, cfg.Digest.EditionWeekday())

	//
	// ── 4.  Ops listener: /metrics, /healthz, resend hook ──────────────
	//
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ops := server.New(cfg.Ops.ListenAddr, opsRouter(db, resender, logOut))
	go func() {
		logOut.Infof("ops listener on %s", cfg.Ops.ListenAddr)
		if err := ops.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logOut.Errorw("ops listener failed", "err", err)
		}
	}()
	defer func() {
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = ops.Shutdown(shCtx)
	}()

	//
	// ── 5.  Run ─────────────────────────────────────────────────────────
	//
	if *once {
		sent, err := runner.RunOnce(ctx)
		if err != nil {
			logOut.Fatalf("scheduled pass: %v", err)
		}
		logOut.Infof("single pass complete, %d digest(s) sent", sent)
		return
	}

	if err := runner.Loop(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logOut.Fatalf("run loop: %v", err)
	}
	logOut.Info("shutting down")
}

/*──────────────────────────── ops router ───────────────────────────────────*/

// resendRequest is the body of POST /v1/resend, called by the preference
// service when a recipient changes city, neighborhoods, or topics.
type resendRequest struct {
	Source  string `json:"source"`
	ID      uint64 `json:"id"`
	Trigger string `json:"trigger"`
}

func opsRouter(db *sqlx.DB, resender *resend.Orchestrator, logOut *zap.SugaredLogger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Handle("/metrics", promhttp.Handler())

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if err := db.PingContext(req.Context()); err != nil {
			http.Error(w, "db unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Post("/v1/resend", func(w http.ResponseWriter, req *http.Request) {
		var body resendRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, "bad request body", http.StatusBadRequest)
			return
		}
		src, err := recipient.ParseSource(body.Source)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		trigger, err := sendlog.ParseTrigger(body.Trigger)
		if err != nil || !trigger.IsResend() {
			http.Error(w, "unknown resend trigger", http.StatusBadRequest)
			return
		}

		result, err := resender.Resend(req.Context(), src, body.ID, trigger)
		if err != nil {
			logOut.Warnw("resend failed", "source", body.Source, "id", body.ID, "err", err)
			http.Error(w, "resend failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"result": result.String()})
	})

	return r
}

package daemon

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/exhale-app/exhale/internal/api"
	"github.com/exhale-app/exhale/internal/app/engagement"
	"github.com/exhale-app/exhale/internal/domain"
	"github.com/exhale-app/exhale/internal/infra/logging"
	"github.com/exhale-app/exhale/internal/infra/memstore"
	"github.com/exhale-app/exhale/internal/infra/sqlite"
)

// Daemon is the Exhale runtime. It wires storage, engine and API together.
type Daemon struct {
	Config Config
	Log    *zap.Logger
	DB     *sqlite.DB // nil with memory storage
	Store  *engagement.Store
	Server *api.Server

	clock clockwork.Clock
}

// New creates and initializes a Daemon from the on-disk config.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	return newDaemon(cfg, clockwork.NewRealClock())
}

func newDaemon(cfg Config, clock clockwork.Clock) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	loc, _ := cfg.Engine.Location()
	profile, _ := cfg.Profile.UserProfile(loc)

	d := &Daemon{Config: cfg, Log: log, clock: clock}

	var kv domain.SnapshotStore
	switch cfg.Engine.Storage {
	case StorageMemory:
		log.Warn("memory storage: progress is lost on exit")
		kv = memstore.New()
	default:
		db, err := sqlite.Open(cfg.Engine.DataDir)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		d.DB = db
		kv = db
	}

	d.Store = engagement.NewStore(engagement.Options{
		Store:          kv,
		Clock:          clock,
		Random:         rand.New(rand.NewSource(clock.Now().UnixNano())),
		Location:       loc,
		Logger:         log,
		DefaultProfile: profile,
	})

	srv := api.NewServer(d.Store, log)
	srv.SetCORSOrigins(cfg.API.CORSOrigins)
	if d.DB != nil {
		srv.SetStorage(d.DB)
	}
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}
	d.Server = srv

	return d, nil
}

// Serve starts the HTTP server and blocks until ctx ends or a signal
// arrives, then shuts down gracefully.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		d.Log.Info("serving", zap.String("addr", "http://"+addr))
		if d.Config.Telemetry.Prometheus {
			d.Log.Info("metrics enabled", zap.String("url", "http://"+addr+"/metrics"))
		}
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		d.runRollover(gctx, parseDuration(d.Config.Engine.RolloverInterval, time.Minute))
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if !d.Store.Flush() {
			d.Log.Warn("unsaved progress at shutdown")
		}
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// runRollover keeps daily state current while the UI is idle: it regenerates
// the daily tasks after midnight and refreshes derived totals.
func (d *Daemon) runRollover(ctx context.Context, every time.Duration) {
	ticker := d.clock.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			d.rollover()
		}
	}
}

func (d *Daemon) rollover() {
	if d.Store.ResetDailyTasks() {
		d.Log.Info("new day: daily tasks regenerated")
	}
	d.Store.RefreshStats()
	if m := d.Store.CheckMilestones(); m != nil {
		d.Log.Info("milestone reached", zap.String("id", m.ID))
	}
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.Store != nil {
		d.Store.Flush()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
	if d.Log != nil {
		_ = d.Log.Sync()
	}
}

// parseDuration parses a duration string, returning a fallback on error.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

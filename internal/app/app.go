package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/five82/trainlog/internal/api"
	"github.com/five82/trainlog/internal/config"
	"github.com/five82/trainlog/internal/logging"
	"github.com/five82/trainlog/internal/offline"
	"github.com/five82/trainlog/internal/prefs"
	"github.com/five82/trainlog/internal/state"
	"github.com/five82/trainlog/internal/tracker"
	"github.com/five82/trainlog/internal/ui"
	"github.com/five82/trainlog/internal/workout"
)

// Options configure the trainlog application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/trainlog/prefs.toml
	// LogWriter receives log output; nil writes to stderr.
	LogWriter io.Writer
	// LogJSON selects one JSON object per line instead of text.
	LogJSON bool
	Now     func() time.Time
}

// App holds the wired services of one process.
type App struct {
	Config config.Config
	Prefs  prefs.Prefs
	Logger *log.Logger

	Offline      *offline.Store
	Client       *api.Client
	Plans        *state.Store
	Sets         *tracker.Sets
	Notes        *tracker.Notes
	Measurements *tracker.Measurements

	now       func() time.Time
	prefsPath string
}

// Open loads configuration and preferences and wires the client stack. An offline store
// that cannot be opened degrades to unavailable storage instead of failing.
func Open(opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	var logger *log.Logger
	if opts.LogJSON {
		logger = logging.NewJSON(opts.LogWriter, cfg.LogLevel)
	} else {
		logger = logging.New(opts.LogWriter, cfg.LogLevel)
	}

	userPrefs, err := prefs.EnsureDeviceID(opts.PrefsPath)
	if err != nil {
		logger.Warn("persist device id failed", "error", err)
	}

	store, err := offline.Open(cfg.OfflineDBPath(), logger)
	if err != nil {
		logger.Warn("offline storage unavailable", "path", cfg.OfflineDBPath(), "error", err)
		store = offline.Unavailable(logger)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	client, err := api.NewClient(api.Options{
		BaseURL:        cfg.APIBase,
		UserID:         cfg.UserID,
		DeviceID:       userPrefs.DeviceID,
		RequestTimeout: cfg.RequestTimeout,
		PlanTimeout:    cfg.PlanTimeout,
		Fallback:       store,
		Logger:         logger,
		Now:            now,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("init api client: %w", err)
	}

	plans := state.NewStore(client, state.Options{TTL: cfg.PlanCacheTTL, Now: now, Logger: logger})
	notes := tracker.NewNotes(client, logger)

	return &App{
		Config:       cfg,
		Prefs:        userPrefs,
		Logger:       logger,
		Offline:      store,
		Client:       client,
		Plans:        plans,
		Sets:         tracker.NewSets(client, plans, logger),
		Notes:        notes,
		Measurements: tracker.NewMeasurements(client, now),
		now:          now,
		prefsPath:    opts.PrefsPath,
	}, nil
}

// Today is the current day on the backend's calendar.
func (a *App) Today() string {
	return workout.Day(a.now())
}

// Now returns the app clock.
func (a *App) Now() time.Time {
	return a.now()
}

// Close releases the offline store.
func (a *App) Close() error {
	return a.Offline.Close()
}

// Run boots the TUI until the context is cancelled or the user quits. Logs go to the log
// file so they do not corrupt the screen.
func Run(ctx context.Context, opts Options) error {
	if opts.LogWriter == nil {
		cfg, err := config.Load(opts.ConfigPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		file, err := logging.OpenFile(cfg.LogPath())
		if err != nil {
			return err
		}
		defer file.Close()
		opts.LogWriter = file
		opts.LogJSON = true
	}

	a, err := Open(opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.Logger.Warn("close offline store failed", "error", err)
		}
	}()

	// Start background poller
	StartPoller(ctx, a.Plans, a.Config.RefreshInterval, a.Logger)

	uiOpts := ui.Options{
		Context:   ctx,
		Plans:     a.Plans,
		Sets:      a.Sets,
		Notes:     a.Notes,
		Day:       a.Today(),
		Now:       a.now,
		ThemeName: a.Prefs.Theme,
		PrefsPath: a.prefsPath,
		Logger:    a.Logger,
	}
	if err := ui.Run(uiOpts); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}


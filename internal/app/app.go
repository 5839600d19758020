package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"plate-go/internal/archive"
	"plate-go/internal/camera"
	"plate-go/internal/config"
	"plate-go/internal/encryption"
	"plate-go/internal/estimate"
	"plate-go/internal/journal"
	"plate-go/internal/plate"
)

// Options adjust how an App is built.
type Options struct {
	// EchoLevel is the lowest level also written to stderr.
	EchoLevel slog.Level
	// Getenv looks up secrets. Defaults to os.Getenv.
	Getenv func(string) string
	// Clock and IDs default to the real clock and UUIDs.
	Clock plate.Clock
	IDs   plate.IDGenerator
}

// App is the application layer between the CLI/HTTP surfaces and the domain.
// It constructs all dependencies from config and owns their lifecycle.
type App struct {
	cfg       *config.Config
	tracker   *plate.Tracker
	reports   *plate.ReportService
	journal   plate.Journal
	archive   plate.Archive
	encryptor plate.Encryptor
	session   *Session
	logger    plate.Logger
	clock     plate.Clock
	logFile   *os.File
}

// NewApp creates a fully wired App from cfg. command names the CLI command
// being run. The caller must call Close when done.
func NewApp(ctx context.Context, cfg *config.Config, command string, opts Options) (*App, error) {
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	var clock plate.Clock = plate.RealClock{}
	if opts.Clock != nil {
		clock = opts.Clock
	}
	var ids plate.IDGenerator = plate.UUIDGenerator{}
	if opts.IDs != nil {
		ids = opts.IDs
	}

	session := NewSession(command, clock.Now())
	sl, logFile, err := newLogger(cfg.LogDir, session.ID, opts.EchoLevel)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: sl}

	a := &App{cfg: cfg, session: session, logger: logger, clock: clock, logFile: logFile}
	if err := a.build(ctx, getenv, ids); err != nil {
		a.Close()
		return nil, err
	}

	logger.Info("session started", "command", command)
	return a, nil
}

func (a *App) build(ctx context.Context, getenv func(string) string, ids plate.IDGenerator) error {
	state, err := initialState(a.cfg)
	if err != nil {
		return err
	}

	cam, err := camera.NewCameraFromConfig(a.cfg.Camera)
	if err != nil {
		return fmt.Errorf("creating camera: %w", err)
	}

	// A missing API key should not stop water logging or history; estimation
	// reports the problem when it is attempted.
	est, err := estimate.NewEstimatorFromConfig(ctx, a.cfg.Estimator, getenv)
	if err != nil {
		a.logger.Warn("estimator unavailable", "type", a.cfg.Estimator.Type, "error", err)
		est = nil
	}

	arc, err := archive.NewArchiveFromConfig(ctx, a.cfg.Archive, getenv)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	a.archive = arc

	j, err := journal.NewJournalFromConfig(a.cfg.Journal)
	if err != nil {
		return fmt.Errorf("creating journal: %w", err)
	}
	a.journal = j
	if err := j.CheckMigrations(); err != nil {
		return fmt.Errorf("journal schema out of date: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(a.cfg.Encryption)
	if err != nil {
		return fmt.Errorf("creating encryptor: %w", err)
	}
	a.encryptor = enc

	a.tracker = plate.NewTracker(state, cam, est, a.logger, a.clock, ids)
	a.reports = plate.NewReportService(j, arc, enc, a.logger, a.clock, ids)
	return nil
}

// initialState builds the empty session state from the goals and hydration config.
func initialState(cfg *config.Config) (plate.State, error) {
	unit, err := plate.ParseWaterUnit(cfg.Hydration.Unit)
	if err != nil {
		return plate.State{}, err
	}
	h, err := plate.NewHydration(unit, cfg.Hydration.Goal, cfg.Hydration.Presets)
	if err != nil {
		return plate.State{}, fmt.Errorf("invalid hydration config: %w", err)
	}
	s, err := plate.NewState(plate.Goals{
		DailyCalories: cfg.Goals.DailyCalories,
		DailySteps:    cfg.Goals.DailySteps,
	}, h)
	if err != nil {
		return plate.State{}, fmt.Errorf("invalid goals config: %w", err)
	}
	return s, nil
}

// Config returns the configuration the App was built from.
func (a *App) Config() *config.Config { return a.cfg }

// Tracker returns the session tracker.
func (a *App) Tracker() *plate.Tracker { return a.tracker }

// Reports returns the report export service.
func (a *App) Reports() *plate.ReportService { return a.reports }

// Encryptor returns the configured encryptor, or nil when reports are stored in plaintext.
func (a *App) Encryptor() plate.Encryptor { return a.encryptor }

// Logger returns the session logger.
func (a *App) Logger() plate.Logger { return a.logger }

// Unlock unlocks the private key for fetching encrypted reports.
// It returns a nil context when encryption is disabled.
func (a *App) Unlock(passphrase string) (plate.DecryptionContext, error) {
	if a.encryptor == nil {
		return nil, nil
	}
	if !a.encryptor.IsConfigured() {
		return nil, fmt.Errorf("encryption keys not found: run `plate keys init`")
	}
	return a.encryptor.Unlock(passphrase)
}

// ValidateArchive checks that the archive is reachable.
func (a *App) ValidateArchive(ctx context.Context) error {
	return a.archive.ValidateSetup(ctx)
}

// Close releases the camera, closes the journal and finalizes the log.
// Calling Close more than once is a no-op.
func (a *App) Close() error {
	var firstErr error

	if a.tracker != nil {
		a.tracker.Close()
		a.logger.Info("session finished", "command", a.session.Command, "elapsed", a.session.Elapsed(a.clock.Now()).String())
		a.tracker = nil
	}
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			firstErr = fmt.Errorf("closing journal: %w", err)
		}
		a.journal = nil
	}
	if a.logFile != nil {
		a.logFile.Close()
		a.logFile = nil
	}
	return firstErr
}

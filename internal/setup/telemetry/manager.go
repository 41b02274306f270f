package telemetry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/robalyx/raidbot/internal/setup/config"
	"github.com/robalyx/raidbot/internal/setup/telemetry/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrSessionNotStarted is returned when a logger is requested before the
// session directory exists.
var ErrSessionNotStarted = errors.New("log session not started")

// sessionDirLayout names each session directory after its start time.
const sessionDirLayout = "2006-01-02_15-04-05"

// Manager handles the creation and management of log files and directories.
// Every program run writes into its own timestamped session directory.
type Manager struct {
	instanceID        string   // Unique identifier for this program instance
	currentSessionDir string   // Path to the current session's log directory
	logDir            string   // Base directory for all logs
	level             string   // Logging level (debug, info, warn, error)
	maxLogsToKeep     int      // Maximum number of log sessions to retain
	maxLogLines       int      // Maximum number of lines to keep in each log file
	console           bool     // Mirror logs to stderr
	traceErrors       bool     // Forward errors as OpenTelemetry spans
	files             []*os.File
	now               func() time.Time
}

// NewManager creates a new Manager instance.
func NewManager(logDir string, debugCfg *config.Debug) *Manager {
	return &Manager{
		instanceID:    uuid.New().String(),
		logDir:        logDir,
		level:         debugCfg.LogLevel,
		maxLogsToKeep: debugCfg.MaxLogsToKeep,
		maxLogLines:   debugCfg.MaxLogLines,
		console:       debugCfg.Console,
		traceErrors:   debugCfg.TraceErrors,
		now:           time.Now,
	}
}

// GetLogger prepares a fresh session directory and returns the main logger
// writing to main.log inside it.
func (lm *Manager) GetLogger() (*zap.Logger, error) {
	if err := lm.setupLogDirectories(); err != nil {
		return nil, err
	}

	mainLogger, err := lm.initLogger(filepath.Join(lm.currentSessionDir, "main.log"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize main logger: %w", err)
	}

	return mainLogger.With(zap.String("instance_id", lm.instanceID)), nil
}

// GetCurrentSessionDir returns the current session directory.
func (lm *Manager) GetCurrentSessionDir() string {
	return lm.currentSessionDir
}

// GetInstanceID returns the unique instance identifier for this program run.
func (lm *Manager) GetInstanceID() string {
	return lm.instanceID
}

// Close closes every log file opened by the manager.
func (lm *Manager) Close() error {
	var errs []error
	for _, f := range lm.files {
		if err := f.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			errs = append(errs, err)
		}
	}
	lm.files = nil
	return errors.Join(errs...)
}

// setupLogDirectories ensures the base directory exists, rotates old
// sessions and creates a new session directory.
func (lm *Manager) setupLogDirectories() error {
	if err := os.MkdirAll(lm.logDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	if err := lm.rotateLogSessions(); err != nil {
		return fmt.Errorf("failed to rotate log sessions: %w", err)
	}

	lm.currentSessionDir = filepath.Join(lm.logDir, lm.now().Format(sessionDirLayout))
	if err := os.MkdirAll(lm.currentSessionDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	return nil
}

// initLogger creates a zap logger writing to path, plus stderr and the
// OpenTelemetry core when enabled.
func (lm *Manager) initLogger(path string) (*zap.Logger, error) {
	if lm.currentSessionDir == "" {
		return nil, ErrSessionNotStarted
	}

	zapLevel, err := zapcore.ParseLevel(lm.level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	encoder := zapcore.NewConsoleEncoder(encoderConfig)

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("cannot open log file %s: %w", path, err)
	}
	lm.files = append(lm.files, file)

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.AddSync(logger.NewLogRotator(file, lm.maxLogLines, path)), zapLevel),
	}

	if lm.console {
		cores = append(cores, zapcore.NewCore(encoder.Clone(), zapcore.Lock(os.Stderr), zapLevel))
	}

	if lm.traceErrors {
		cores = append(cores, NewCore(zapcore.ErrorLevel))
	}

	return zap.New(
		zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	), nil
}

// rotateLogSessions removes the oldest sessions so that, together with the
// session about to be created, at most maxLogsToKeep remain.
func (lm *Manager) rotateLogSessions() error {
	if lm.maxLogsToKeep <= 0 {
		return nil
	}

	sessions, err := filepath.Glob(filepath.Join(lm.logDir, "*"))
	if err != nil {
		return err
	}

	if len(sessions) < lm.maxLogsToKeep {
		return nil
	}

	// Session names sort chronologically
	sort.Strings(sessions)

	toDelete := len(sessions) - lm.maxLogsToKeep + 1
	for i := range toDelete {
		if err := os.RemoveAll(sessions[i]); err != nil {
			return err
		}
	}

	return nil
}

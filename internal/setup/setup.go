package setup

import (
	"log"

	"github.com/robalyx/raidbot/internal/setup/config"
	"github.com/robalyx/raidbot/internal/setup/telemetry"
	"go.uber.org/zap"
)

// App bundles the dependencies every entrypoint needs.
type App struct {
	Config     *config.Config     // Application configuration
	Logger     *zap.Logger        // Main application logger
	LogManager *telemetry.Manager // Log management system
}

// InitializeApp loads configuration and starts the logging session. Missing
// required configuration is returned as an error and is fatal to callers.
func InitializeApp(logDir string) (*App, error) {
	cfg, configDir, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	logManager := telemetry.NewManager(logDir, &cfg.Common.Debug)

	logger, err := logManager.GetLogger()
	if err != nil {
		return nil, err
	}

	if configDir == "" {
		logger.Info("No config files found, using defaults and environment")
	} else {
		logger.Info("Loaded config files", zap.String("dir", configDir))
	}

	return &App{
		Config:     cfg,
		Logger:     logger,
		LogManager: logManager,
	}, nil
}

// Cleanup flushes and closes the logging system.
func (s *App) Cleanup() {
	if err := s.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	if err := s.LogManager.Close(); err != nil {
		log.Printf("Failed to close log files: %v", err)
	}
}

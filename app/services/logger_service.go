package services

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"InventoryApp/app/config"

	"github.com/sirupsen/logrus"
)

// LoggerService handles application logging. Entries go to stdout and to a
// dated file under the app data directory, rotated daily.
type LoggerService struct {
	logDir     string
	logFile    *os.File
	logger     *logrus.Logger
	currentDay string
}

// NewLoggerService creates a new logger service
func NewLoggerService() *LoggerService {
	service := &LoggerService{
		logger: logrus.New(),
	}
	service.initializeLogger()
	return service
}

// initializeLogger sets up the logging system
func (s *LoggerService) initializeLogger() {
	s.logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	if levelName := os.Getenv("LOG_LEVEL"); levelName != "" {
		if level, err := logrus.ParseLevel(levelName); err == nil {
			s.logger.SetLevel(level)
		}
	}

	dataDir, err := config.GetDataDir()
	if err != nil {
		s.logDir = "logs"
	} else {
		s.logDir = filepath.Join(dataDir, "logs")
	}

	if err := os.MkdirAll(s.logDir, 0755); err != nil {
		s.logger.SetOutput(os.Stdout)
		s.logger.Warnf("Could not create logs directory, logging to stdout only: %v", err)
		return
	}

	if err := s.rotateLogFile(); err != nil {
		s.logger.SetOutput(os.Stdout)
		s.logger.Warnf("Could not create log file, logging to stdout only: %v", err)
		return
	}

	s.logger.Infof("Logger initialized, log directory: %s", s.logDir)
}

// rotateLogFile opens the log file for the current day
func (s *LoggerService) rotateLogFile() error {
	today := time.Now().Format("2006-01-02")
	if s.currentDay == today && s.logFile != nil {
		return nil
	}

	if s.logFile != nil {
		s.logFile.Close()
	}

	logFilePath := filepath.Join(s.logDir, fmt.Sprintf("%s.log", today))
	file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	s.logFile = file
	s.currentDay = today
	s.logger.SetOutput(io.MultiWriter(os.Stdout, s.logFile))

	return nil
}

// checkAndRotate switches to a new file when the day rolls over
func (s *LoggerService) checkAndRotate() {
	if s.logFile == nil {
		return
	}
	if s.currentDay != time.Now().Format("2006-01-02") {
		s.rotateLogFile()
	}
}

// LogInfo logs an informational message
func (s *LoggerService) LogInfo(message string, details ...string) {
	s.checkAndRotate()
	if len(details) > 0 {
		s.logger.WithField("details", details[0]).Info(message)
		return
	}
	s.logger.Info(message)
}

// LogWarning logs a warning message
func (s *LoggerService) LogWarning(message string, details ...string) {
	s.checkAndRotate()
	if len(details) > 0 {
		s.logger.WithField("details", details[0]).Warn(message)
		return
	}
	s.logger.Warn(message)
}

// LogError logs an error message
func (s *LoggerService) LogError(message string, err error, details ...string) {
	s.checkAndRotate()
	entry := logrus.NewEntry(s.logger)
	if err != nil {
		entry = entry.WithError(err)
	}
	if len(details) > 0 {
		entry = entry.WithField("details", details[0])
	}
	entry.Error(message)
}

// LogFatal logs a fatal error and exits
func (s *LoggerService) LogFatal(message string, err error) {
	s.checkAndRotate()
	entry := logrus.NewEntry(s.logger)
	if err != nil {
		entry = entry.WithError(err)
	}
	if s.logFile != nil {
		defer s.logFile.Close()
	}
	entry.Fatal(message)
}

// LogPanic logs a recovered panic with its stack trace
func (s *LoggerService) LogPanic(recovered interface{}) {
	s.checkAndRotate()
	s.logger.Errorf("Recovered from panic: %v", recovered)
	s.logger.Errorf("Stack trace:\n%s", string(debug.Stack()))
}

// RecoverPanic is a helper to recover from panics in goroutines
func (s *LoggerService) RecoverPanic() {
	if r := recover(); r != nil {
		s.LogPanic(r)
	}
}

// GetLogDirectory returns the directory where logs are stored
func (s *LoggerService) GetLogDirectory() string {
	return s.logDir
}

// CleanOldLogs removes log files older than the given number of days
func (s *LoggerService) CleanOldLogs(daysToKeep int) error {
	files, err := os.ReadDir(s.logDir)
	if err != nil {
		return err
	}

	cutoffDate := time.Now().AddDate(0, 0, -daysToKeep)

	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".log" {
			continue
		}

		info, err := file.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoffDate) {
			filePath := filepath.Join(s.logDir, file.Name())
			s.LogInfo("Deleting old log file", filePath)
			os.Remove(filePath)
		}
	}

	return nil
}

// Close closes the log file
func (s *LoggerService) Close() {
	if s.logFile != nil {
		s.logFile.Close()
	}
}

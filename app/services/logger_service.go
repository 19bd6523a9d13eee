package services

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerService handles application logging.
// Entries go to stdout and to a daily YYYY-MM-DD.log file in the log directory.
type LoggerService struct {
	logDir string
	file   *dailyFile
	logger *zap.Logger
}

// NewLoggerService creates a logger writing to logDir. An empty logDir falls
// back to <user config dir>/PosPrint/logs, then to ./logs.
func NewLoggerService(logDir string) *LoggerService {
	service := &LoggerService{logDir: resolveLogDir(logDir)}
	service.initializeLogger()
	return service
}

// NewNopLogger returns a logger that discards everything
func NewNopLogger() *LoggerService {
	return &LoggerService{logger: zap.NewNop()}
}

func resolveLogDir(logDir string) string {
	if logDir != "" {
		return logDir
	}
	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "PosPrint", "logs")
	}
	return "logs"
}

// initializeLogger sets up the console and file cores
func (s *LoggerService) initializeLogger() {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05")
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encoder := zapcore.NewConsoleEncoder(encoderCfg)

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), zapcore.DebugLevel),
	}

	if err := os.MkdirAll(s.logDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not create logs directory: %v. Logging to stdout only.\n", err)
	} else {
		s.file = &dailyFile{dir: s.logDir}
		cores = append(cores, zapcore.NewCore(encoder, s.file, zapcore.DebugLevel))
	}

	s.logger = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	zap.RedirectStdLog(s.logger)

	s.LogInfo("Logger initialized", fmt.Sprintf("Log directory: %s", s.logDir))
}

func detailFields(details []string) []zap.Field {
	if len(details) == 0 || details[0] == "" {
		return nil
	}
	return []zap.Field{zap.String("details", details[0])}
}

// Zap exposes the underlying logger for components that take structured fields
func (s *LoggerService) Zap() *zap.Logger {
	return s.logger
}

// LogInfo logs an informational message
func (s *LoggerService) LogInfo(message string, details ...string) {
	s.logger.Info(message, detailFields(details)...)
}

// LogWarning logs a warning message
func (s *LoggerService) LogWarning(message string, details ...string) {
	s.logger.Warn(message, detailFields(details)...)
}

// LogError logs an error message
func (s *LoggerService) LogError(message string, err error, details ...string) {
	fields := detailFields(details)
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	s.logger.Error(message, fields...)
}

// LogPanic logs a panic with stack trace
func (s *LoggerService) LogPanic(recovered interface{}) {
	s.logger.Error("Recovered from panic",
		zap.Any("panic", recovered),
		zap.ByteString("stack", debug.Stack()))
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

// GetTodayLogPath returns the path to today's log file
func (s *LoggerService) GetTodayLogPath() string {
	return filepath.Join(s.logDir, time.Now().Format("2006-01-02")+".log")
}

// CleanOldLogs removes log files older than specified days
func (s *LoggerService) CleanOldLogs(daysToKeep int) error {
	if s.logDir == "" {
		return nil
	}
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

// Close flushes and closes the log file
func (s *LoggerService) Close() {
	_ = s.logger.Sync()
	if s.file != nil {
		s.file.Close()
	}
}

// dailyFile is a zapcore.WriteSyncer that switches to a new file at midnight
type dailyFile struct {
	dir string

	mu         sync.Mutex
	file       *os.File
	currentDay string
}

func (f *dailyFile) rotate() error {
	today := time.Now().Format("2006-01-02")
	if f.currentDay == today && f.file != nil {
		return nil
	}
	if f.file != nil {
		f.file.Close()
	}

	file, err := os.OpenFile(filepath.Join(f.dir, today+".log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		f.file = nil
		return fmt.Errorf("failed to open log file: %w", err)
	}
	f.file = file
	f.currentDay = today
	return nil
}

func (f *dailyFile) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.rotate(); err != nil {
		return 0, err
	}
	return f.file.Write(p)
}

func (f *dailyFile) Sync() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return nil
	}
	return f.file.Sync()
}

func (f *dailyFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}

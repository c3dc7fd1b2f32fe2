package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"photocapture/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// Log files kept per level inside the configured log directory.
const (
	InfoFile    = "info.log"
	WarningFile = "warning.log"
	ErrorFile   = "error.log"
)

// Logger provides leveled logging (info/warning/error) to files and stdout/stderr.
type Logger struct {
	sugar  *zap.SugaredLogger
	logDir string
	files  []*os.File
	mu     sync.Mutex
}

// NewLogger creates a Logger and ensures the log directory exists.
func NewLogger(cfg *config.Config) (*Logger, error) {
	l := &Logger{logDir: cfg.LogDirectory}

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encoder := zapcore.NewConsoleEncoder(encoderCfg)

	infoLevel := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool { return lvl < zapcore.WarnLevel })
	warningLevel := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool { return lvl == zapcore.WarnLevel })
	errorLevel := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool { return lvl >= zapcore.ErrorLevel })

	infoSink := zapcore.Lock(os.Stdout)
	warningSink := zapcore.Lock(os.Stdout)
	errorSink := zapcore.Lock(os.Stderr)

	if !cfg.LogConsoleOnly {
		if err := os.MkdirAll(cfg.LogDirectory, 0755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		infoFile, err := l.openLogFile(InfoFile)
		if err != nil {
			return nil, err
		}
		warningFile, err := l.openLogFile(WarningFile)
		if err != nil {
			return nil, err
		}
		errorFile, err := l.openLogFile(ErrorFile)
		if err != nil {
			return nil, err
		}
		infoSink = zapcore.NewMultiWriteSyncer(infoSink, zapcore.AddSync(infoFile))
		warningSink = zapcore.NewMultiWriteSyncer(warningSink, zapcore.AddSync(warningFile))
		errorSink = zapcore.NewMultiWriteSyncer(errorSink, zapcore.AddSync(errorFile))
	}

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, infoSink, infoLevel),
		zapcore.NewCore(encoder, warningSink, warningLevel),
		zapcore.NewCore(encoder, errorSink, errorLevel),
	)
	l.sugar = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
	return l, nil
}

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

// NewTest returns a Logger writing through t.Log.
func NewTest(t testing.TB) *Logger {
	return &Logger{sugar: zaptest.NewLogger(t).Sugar(), logDir: t.TempDir()}
}

func (l *Logger) openLogFile(name string) (*os.File, error) {
	file, err := os.OpenFile(filepath.Join(l.logDir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", name, err)
	}
	l.files = append(l.files, file)
	return file, nil
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.sugar.Infof(format, v...)
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.sugar.Warnf(format, v...)
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.sugar.Errorf(format, v...)
}

// Directory returns the directory log files are written to.
func (l *Logger) Directory() string {
	return l.logDir
}

// CleanLogs truncates the specified log file.
func (l *Logger) CleanLogs(fileName string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch fileName {
	case InfoFile, WarningFile, ErrorFile:
	default:
		return fmt.Errorf("unknown log file %q", fileName)
	}

	filePath := filepath.Join(l.logDir, fileName)
	if err := os.Truncate(filePath, 0); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("truncate %s: %w", fileName, err)
	}
	return nil
}

// Close flushes buffered entries and closes the log files.
func (l *Logger) Close() error {
	_ = l.sugar.Sync()
	var firstErr error
	for _, f := range l.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Package logging owns the process-wide zap logger. The level is held in an
// atomic so it can be changed at runtime through the log API route or the
// config watcher without rebuilding the logger.
package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	initOnce    sync.Once
	atomicLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	mu     sync.RWMutex
	global = zap.NewNop()
)

// Init builds the global logger. Safe to call more than once; only the first
// call builds. Verbose forces the debug level regardless of level.
func Init(level string, verbose bool) error {
	var initErr error
	initOnce.Do(func() {
		if verbose {
			level = "debug"
		}
		if level != "" {
			if err := SetLogLevel(level); err != nil {
				initErr = err
				return
			}
		}
		cfg := zap.NewProductionConfig()
		cfg.Level = atomicLevel
		logger, err := cfg.Build()
		if err != nil {
			initErr = err
			return
		}
		mu.Lock()
		global = logger
		mu.Unlock()
	})
	return initErr
}

// L returns the global logger. Before Init it is a no-op logger, so packages
// may log unconditionally.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// SetLogLevel changes the level of the global logger at runtime.
func SetLogLevel(level string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return err
	}
	atomicLevel.SetLevel(lvl)
	return nil
}

// GetLogLevel returns the current level string.
func GetLogLevel() string {
	return atomicLevel.Level().String()
}

// Sync flushes buffered log entries. Called at shutdown.
func Sync() {
	_ = L().Sync()
}

package config

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ParseLevel converts a configured level name into a zap level.
func ParseLevel(level string) (zapcore.Level, error) {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return l, nil
}

// NewLogger builds the process logger described by the logging section.
// The returned AtomicLevel can be adjusted later, e.g. on config reload.
func (l LoggingConfig) NewLogger() (*zap.Logger, zap.AtomicLevel, error) {
	level, err := ParseLevel(l.Level)
	if err != nil {
		return nil, zap.AtomicLevel{}, err
	}
	atom := zap.NewAtomicLevelAt(level)

	var zc zap.Config
	if l.Format == "text" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = atom

	logger, err := zc.Build()
	if err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("build logger: %w", err)
	}
	return logger, atom, nil
}

// FollowLogLevel applies the logging level of every configuration published
// by w to level. It blocks until ctx is done or w is closed.
func FollowLogLevel(ctx context.Context, w Watcher, level zap.AtomicLevel, logger *zap.Logger) {
	updates := w.Subscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-updates:
			if !ok {
				return
			}
			l, err := ParseLevel(cfg.Logging.Level)
			if err != nil || l == level.Level() {
				continue
			}
			level.SetLevel(l)
			logger.Info("log level changed", zap.Stringer("level", l))
		}
	}
}

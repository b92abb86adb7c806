package config_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"

	"github.com/teilomillet/codeshift/config"
	"github.com/teilomillet/codeshift/server/mocks"
)

func TestFollowLogLevel(t *testing.T) {
	cfg := config.DefaultConfig()
	watcher := mocks.NewMockConfigWatcher(cfg)
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)

	done := make(chan struct{})
	go func() {
		config.FollowLogLevel(context.Background(), watcher, level, zaptest.NewLogger(t))
		close(done)
	}()

	assert.Eventually(t, func() bool {
		next := *cfg
		next.Logging.Level = "debug"
		watcher.UpdateConfig(&next)
		return level.Level() == zapcore.DebugLevel
	}, 2*time.Second, 10*time.Millisecond)

	// Closing the watcher ends the loop
	watcher.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("FollowLogLevel did not return after Close")
	}
}

func TestFollowLogLevelStopsOnContext(t *testing.T) {
	watcher := mocks.NewMockConfigWatcher(config.DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	finished := make(chan struct{})
	go func() {
		config.FollowLogLevel(ctx, watcher, zap.NewAtomicLevel(), zap.NewNop())
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("FollowLogLevel ignored a cancelled context")
	}
}

package container

import (
	"context"
	"testing"

	"danawa/crawler/internal/config"
)

func TestNewWithoutRedis(t *testing.T) {
	cfg := config.Default()
	cfg.App.MetricsAddr = "127.0.0.1:0"

	c, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer c.Close()

	if c.redis != nil {
		t.Fatal("redis client created while disabled")
	}
	if c.Scheduler == nil || c.metricsServer == nil {
		t.Fatalf("scheduler=%v metrics=%v", c.Scheduler, c.metricsServer)
	}
	release, err := c.StateManager.AcquireRunLock(context.Background(), cfg.Redis.LockTTL)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	_ = release(context.Background())
}

func TestNewRejectsBadSchedule(t *testing.T) {
	cfg := config.Default()
	cfg.App.Schedule = "daily"

	if _, err := New(context.Background(), cfg); err == nil {
		t.Fatal("expected schedule error")
	}
}

func TestNewSkipsSchedulerForRunOnce(t *testing.T) {
	cfg := config.Default()
	cfg.App.RunOnce = true
	cfg.App.Schedule = ""

	c, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if c.Scheduler != nil {
		t.Fatal("scheduler built for run_once")
	}
}

package schedule

import (
	"context"
	"testing"
	"time"
)

func TestNewRejectsBadSpec(t *testing.T) {
	if _, err := New("every day", time.UTC); err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
}

func TestDailyAtMidnight(t *testing.T) {
	s, err := New("0 0 * * *", time.UTC)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	from := time.Date(2024, 5, 9, 21, 44, 0, 0, time.UTC)
	want := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	if got := s.Next(from); !got.Equal(want) {
		t.Fatalf("next = %s, want %s", got, want)
	}
}

func TestRunReturnsWhenContextEnds(t *testing.T) {
	s, err := New("0 0 * * *", time.UTC)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, func(context.Context) error { return nil })
	}()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

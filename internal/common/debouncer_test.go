package common

import (
	"testing"
	"time"
)

func TestDebouncer_ReadyBeforeAnyMark(t *testing.T) {
	d := NewDebouncer(time.Minute)
	ready, since := d.Ready(time.Now())
	if !ready || since != time.Minute {
		t.Fatalf("expected ready=true since=interval before any Mark, got ready=%v since=%v", ready, since)
	}
}

func TestDebouncer_NotReadyBeforeIntervalElapses(t *testing.T) {
	d := NewDebouncer(time.Minute)
	now := time.Now()
	d.Mark(now)

	ready, _ := d.Ready(now.Add(30 * time.Second))
	if ready {
		t.Fatalf("expected not ready before the interval elapses")
	}
}

func TestDebouncer_ReadyAfterIntervalElapses(t *testing.T) {
	d := NewDebouncer(time.Minute)
	now := time.Now()
	d.Mark(now)

	ready, _ := d.Ready(now.Add(90 * time.Second))
	if !ready {
		t.Fatalf("expected ready once the interval elapses")
	}
}

func TestDebouncer_ZeroIntervalAlwaysReady(t *testing.T) {
	d := NewDebouncer(0)
	now := time.Now()
	d.Mark(now)

	ready, since := d.Ready(now)
	if !ready || since != 0 {
		t.Fatalf("expected a zero interval to always be ready, got ready=%v since=%v", ready, since)
	}
}

func TestDebouncer_ResetClearsLast(t *testing.T) {
	d := NewDebouncer(time.Minute)
	now := time.Now()
	d.Mark(now)
	d.Reset()

	if !d.Last().IsZero() {
		t.Fatalf("expected Reset to clear Last")
	}
	ready, _ := d.Ready(now)
	if !ready {
		t.Fatalf("expected ready=true immediately after Reset")
	}
}

func TestDebouncer_SetIntervalAndInterval(t *testing.T) {
	d := NewDebouncer(time.Minute)
	d.SetInterval(5 * time.Second)
	if d.Interval() != 5*time.Second {
		t.Fatalf("expected Interval() to reflect SetInterval, got %v", d.Interval())
	}
}

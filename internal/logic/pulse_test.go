package logic

import (
	"testing"
	"time"
)

func TestPulseTriggerFromIdle(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	p := NewPulse(800 * time.Millisecond)

	if p.Active() {
		t.Error("new pulse should be idle")
	}
	if !p.Trigger(now) {
		t.Fatal("trigger from idle should succeed")
	}
	if !p.Active() {
		t.Error("pulse should be active after trigger")
	}
	if p.Count() != 1 {
		t.Errorf("expected count 1, got %d", p.Count())
	}
}

func TestPulseTriggerWhileActiveIgnored(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	p := NewPulse(800 * time.Millisecond)

	p.Trigger(now)

	// Second trigger at 300ms is ignored
	if p.Trigger(now.Add(300 * time.Millisecond)) {
		t.Error("trigger while active should be ignored")
	}
	if p.Count() != 1 {
		t.Errorf("ignored trigger should not count, got %d", p.Count())
	}

	// The original pulse still expires 800ms after the FIRST trigger,
	// not the second
	if p.Expire(now.Add(790 * time.Millisecond)) {
		t.Error("should not expire before original deadline")
	}
	if !p.Expire(now.Add(800 * time.Millisecond)) {
		t.Error("should expire at original deadline")
	}
}

func TestPulseExpireExactlyOnce(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	p := NewPulse(800 * time.Millisecond)

	p.Trigger(now)

	// Before the deadline
	if p.Expire(now.Add(799 * time.Millisecond)) {
		t.Error("should not expire at 799ms")
	}

	// At the deadline
	if !p.Expire(now.Add(800 * time.Millisecond)) {
		t.Error("should expire at 800ms")
	}
	if p.Active() {
		t.Error("pulse should be idle after expiry")
	}

	// Subsequent checks return false
	if p.Expire(now.Add(900 * time.Millisecond)) {
		t.Error("expire should fire exactly once")
	}
}

func TestPulseExpireWhileIdle(t *testing.T) {
	p := NewPulse(800 * time.Millisecond)
	if p.Expire(time.Now()) {
		t.Error("idle pulse should never expire")
	}
}

func TestPulseRetriggerAfterExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	p := NewPulse(800 * time.Millisecond)

	p.Trigger(now)
	p.Expire(now.Add(800 * time.Millisecond))

	t2 := now.Add(2 * time.Second)
	if !p.Trigger(t2) {
		t.Fatal("trigger after expiry should succeed")
	}
	if p.Count() != 2 {
		t.Errorf("expected count 2, got %d", p.Count())
	}
	if !p.Expire(t2.Add(800 * time.Millisecond)) {
		t.Error("second pulse should expire on its own deadline")
	}
}

func TestPulseForceIdle(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	p := NewPulse(800 * time.Millisecond)

	p.Trigger(now)
	p.ForceIdle()

	if p.Active() {
		t.Error("pulse should be idle after ForceIdle")
	}
	if p.Expire(now.Add(800 * time.Millisecond)) {
		t.Error("abandoned pulse should not expire")
	}
	if p.Count() != 1 {
		t.Errorf("ForceIdle should not change count, got %d", p.Count())
	}
}

func TestPulseForceIdleWhileIdle(t *testing.T) {
	p := NewPulse(800 * time.Millisecond)
	p.ForceIdle() // no-op
	if p.Active() {
		t.Error("pulse should remain idle")
	}
}

func TestPulseRemaining(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	p := NewPulse(800 * time.Millisecond)

	if p.Remaining(now) != 0 {
		t.Error("idle pulse should have zero remaining")
	}

	p.Trigger(now)
	if got := p.Remaining(now.Add(300 * time.Millisecond)); got != 500*time.Millisecond {
		t.Errorf("expected 500ms remaining, got %v", got)
	}

	// Past the deadline but not yet expired by a check
	if got := p.Remaining(now.Add(900 * time.Millisecond)); got != 0 {
		t.Errorf("expected zero remaining past deadline, got %v", got)
	}
}

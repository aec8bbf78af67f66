package config

import (
	"testing"
	"time"
)

func TestDuration(t *testing.T) {
	t.Setenv("DISPATCH_INTERVAL", "")
	d, err := Duration("DISPATCH_INTERVAL", time.Minute)
	if err != nil || d != time.Minute {
		t.Fatalf("expected fallback 1m, got %s (%v)", d, err)
	}

	t.Setenv("DISPATCH_INTERVAL", "90")
	d, err = Duration("DISPATCH_INTERVAL", time.Minute)
	if err != nil || d != 90*time.Second {
		t.Fatalf("expected 90s, got %s (%v)", d, err)
	}

	t.Setenv("DISPATCH_INTERVAL", "2m")
	d, err = Duration("DISPATCH_INTERVAL", time.Minute)
	if err != nil || d != 2*time.Minute {
		t.Fatalf("expected 2m, got %s (%v)", d, err)
	}

	t.Setenv("DISPATCH_INTERVAL", "-5s")
	if _, err := Duration("DISPATCH_INTERVAL", time.Minute); err == nil {
		t.Fatal("expected error for negative duration")
	}
}

func TestIntAndList(t *testing.T) {
	t.Setenv("REMINDER_ADVANCE_MINUTES", "abc")
	if _, err := Int("REMINDER_ADVANCE_MINUTES", 60); err == nil {
		t.Fatal("expected error for malformed int")
	}

	t.Setenv("DELIVERY_SINKS", " log, ,email ")
	got := List("DELIVERY_SINKS", "log")
	if len(got) != 2 || got[0] != "log" || got[1] != "email" {
		t.Fatalf("unexpected list: %v", got)
	}
}

func TestPort(t *testing.T) {
	t.Setenv("PORT", "70000")
	if _, err := Port("PORT", "8083"); err == nil {
		t.Fatal("expected error for out of range port")
	}
}

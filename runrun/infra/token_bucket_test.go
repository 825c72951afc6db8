package infra

import (
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestTokenBucket_AllowsBurstThenBlocks(t *testing.T) {
	lim := NewTokenBucket(2, time.Minute)

	if !lim.Allow() || !lim.Allow() {
		t.Fatalf("expected burst of 2 to be allowed")
	}
	if lim.Allow() {
		t.Fatalf("expected third immediate Allow to be false")
	}
}

func TestTokenBucket_RateIsMaxPerWindow(t *testing.T) {
	lim := NewTokenBucket(100, time.Minute)

	if got, want := lim.Limit(), rate.Every(600*time.Millisecond); got != want {
		t.Fatalf("expected limit %v, got %v", want, got)
	}
	if lim.Burst() != 100 {
		t.Fatalf("expected burst 100, got %d", lim.Burst())
	}
}

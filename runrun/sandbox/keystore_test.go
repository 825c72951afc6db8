package sandbox

import (
	"sync"
	"testing"
	"time"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 1, 7, 14, 47, 0, 0, time.UTC)}
}

func TestKeyStore_BurstThenReset(t *testing.T) {
	clock := newTestClock()
	s := NewKeyStore(2, time.Minute, WithNow(clock.Now))

	for i := 0; i < 2; i++ {
		if ok, _ := s.Admit("k"); !ok {
			t.Fatalf("request %d should be admitted", i+1)
		}
	}
	ok, reset := s.Admit("k")
	if ok {
		t.Fatalf("third request should be rejected")
	}
	if want := clock.Now().Add(30 * time.Second); !reset.Equal(want) {
		t.Fatalf("expected reset %v, got %v", want, reset)
	}

	clock.Advance(30 * time.Second)
	if ok, _ := s.Admit("k"); !ok {
		t.Fatalf("request at reset should be admitted")
	}
}

func TestKeyStore_KeysAreIndependent(t *testing.T) {
	s := NewKeyStore(1, time.Minute, WithNow(newTestClock().Now))

	if ok, _ := s.Admit("a"); !ok {
		t.Fatalf("expected a to pass")
	}
	if ok, _ := s.Admit("b"); !ok {
		t.Fatalf("expected b to pass")
	}
	if ok, _ := s.Admit("a"); ok {
		t.Fatalf("expected second a to be rejected")
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 keys, got %d", s.Len())
	}
}

func TestKeyStore_ResetRoundsUpToSecond(t *testing.T) {
	clock := newTestClock()
	s := NewKeyStore(3, 10*time.Second, WithNow(clock.Now))
	for i := 0; i < 3; i++ {
		s.Admit("k")
	}
	// 10s/3 = 3.333s até o próximo token
	_, reset := s.Admit("k")
	if want := clock.Now().Add(4 * time.Second); !reset.Equal(want) {
		t.Fatalf("expected reset %v, got %v", want, reset)
	}
}

func TestKeyStore_CleanupRemovesIdleEntries(t *testing.T) {
	clock := newTestClock()
	s := NewKeyStore(1, time.Minute, WithNow(clock.Now), WithIdleTTL(time.Minute), WithCleanupEvery(0))

	s.Admit("k")
	clock.Advance(2 * time.Minute)
	s.Cleanup()

	if s.Len() != 0 {
		t.Fatalf("expected idle key to be removed, %d left", s.Len())
	}
	// recriado com o bucket cheio
	if ok, _ := s.Admit("k"); !ok {
		t.Fatalf("expected recreated key to pass")
	}
}

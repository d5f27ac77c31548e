package session

import (
	"errors"
	"testing"
	"time"
)

func TestInitSameIPExtendsExistingSession(t *testing.T) {
	r := NewRegistry()
	first, err := r.Init(1, "1.2.3.4", time.Hour)
	if err != nil {
		t.Fatalf("first Init: %v", err)
	}

	second, err := r.Init(1, "1.2.3.4", 2*time.Hour)
	if err != nil {
		t.Fatalf("second Init from the same IP should succeed: %v", err)
	}
	if second != first {
		t.Fatalf("Init from the same IP must return the existing session, not a new one")
	}
	got, ok := r.Get(1)
	if !ok || got != first {
		t.Fatalf("Get(1) should still return the original session")
	}
}

func TestInitDifferentIPFailsWithSessionConflict(t *testing.T) {
	r := NewRegistry()
	first, err := r.Init(1, "1.2.3.4", time.Hour)
	if err != nil {
		t.Fatalf("first Init: %v", err)
	}

	second, err := r.Init(1, "5.6.7.8", time.Hour)
	if !errors.Is(err, ErrSessionConflict) {
		t.Fatalf("Init from a different IP should fail with ErrSessionConflict, got %v", err)
	}
	if second != nil {
		t.Fatalf("a failed Init must not return a session")
	}
	got, ok := r.Get(1)
	if !ok || got != first {
		t.Fatalf("a conflicting Init must not evict the existing session")
	}
	if got := r.LookupByIP("1.2.3.4"); len(got) != 1 || got[0] != first {
		t.Fatalf("LookupByIP(1.2.3.4) = %v, want [first]", got)
	}
}

func newIndexed(r *Registry, accountID uint32, ip string, ttl time.Duration) *Session {
	s, err := r.Init(accountID, ip, ttl)
	if err != nil {
		panic(err)
	}
	return s
}

func TestSetIgnoreIPLookupRemovesFromIndex(t *testing.T) {
	r := NewRegistry()
	s := newIndexed(r, 1, "1.2.3.4", time.Hour)

	if got := r.LookupByIP("1.2.3.4"); len(got) != 1 {
		t.Fatalf("expected the session to be IP-indexed before opting out")
	}
	r.SetIgnoreIPLookup(s)
	if got := r.LookupByIP("1.2.3.4"); len(got) != 0 {
		t.Fatalf("LookupByIP after SetIgnoreIPLookup = %v, want empty", got)
	}
	if _, ok := r.Get(1); !ok {
		t.Fatalf("SetIgnoreIPLookup must not remove the account-id index entry")
	}
}

func TestDeleteOnlyRemovesMatchingPointer(t *testing.T) {
	r := NewRegistry()
	stale := newIndexed(r, 1, "1.2.3.4", time.Hour)
	// Simulate the stale session having already lapsed and been swept,
	// leaving its caller holding a pointer to a session no longer indexed.
	r.Delete(1, stale)
	current := newIndexed(r, 1, "1.2.3.4", time.Hour)

	r.Delete(1, stale)
	if _, ok := r.Get(1); !ok {
		t.Fatalf("Delete with a stale session pointer must not remove the current session")
	}

	r.Delete(1, current)
	if _, ok := r.Get(1); ok {
		t.Fatalf("Delete with the current session pointer should remove it")
	}
}

func TestSweepExpiredRemovesOnlyLapsedSessions(t *testing.T) {
	r := NewRegistry()
	stale := newIndexed(r, 1, "1.2.3.4", time.Hour)
	stale.ForceExpire()
	fresh := newIndexed(r, 2, "5.6.7.8", time.Hour)
	_ = fresh

	expired := r.SweepExpired(time.Now())
	if len(expired) != 1 || expired[0] != stale {
		t.Fatalf("SweepExpired = %v, want [stale]", expired)
	}
	if _, ok := r.Get(1); ok {
		t.Fatalf("swept session should be removed from the registry")
	}
	if _, ok := r.Get(2); !ok {
		t.Fatalf("fresh session should survive the sweep")
	}
	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", r.Len())
	}
}

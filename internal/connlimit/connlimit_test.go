package connlimit

import "testing"

func TestConnKeyAndAttemptKeyAreDistinctNamespaces(t *testing.T) {
	ip := "10.0.0.1"
	if connKey(ip) == attemptKey(ip) {
		t.Fatalf("connKey and attemptKey must not collide for the same address")
	}
	if connKey(ip) != connKey(ip) {
		t.Fatalf("connKey must be deterministic for the same input")
	}
}

package handler

import (
	"net"
	"testing"
)

// writeMinimalCharList now loads from deps.Contents/deps.Characters (both
// pgxpool-backed), so it is exercised by a live database rather than a
// package-level unit test, consistent with the rest of this package's
// DB-bound repository methods.

func TestHostOfStripsPort(t *testing.T) {
	addr := &net.TCPAddr{IP: net.ParseIP("192.168.1.5"), Port: 54321}
	if got := hostOf(addr); got != "192.168.1.5" {
		t.Fatalf("hostOf = %q, want %q", got, "192.168.1.5")
	}
}

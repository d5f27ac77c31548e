package worldagent

import (
	"testing"
	"time"
)

func TestRandomStartingZoneStaysWithinNation(t *testing.T) {
	for nation, zones := range startingZones {
		zoneSet := make(map[uint16]bool, len(zones))
		for _, z := range zones {
			zoneSet[z] = true
		}
		for i := 0; i < 50; i++ {
			got, err := randomStartingZone(nation)
			if err != nil {
				t.Fatalf("randomStartingZone(%d) returned error: %v", nation, err)
			}
			if !zoneSet[got] {
				t.Fatalf("randomStartingZone(%d) = %#x, not among %v", nation, got, zones)
			}
		}
	}
}

func TestRandomStartingZoneUnknownNation(t *testing.T) {
	if _, err := randomStartingZone(99); err == nil {
		t.Fatalf("expected an error for a nation with no starting zones")
	}
}

func TestEvictExpiredLockedDropsOnlyLapsed(t *testing.T) {
	now := time.Now()
	a := &Allocator{
		reservations: []reservation{
			{charID: 1, expiresAt: now.Add(-time.Second)},
			{charID: 2, expiresAt: now.Add(time.Hour)},
		},
	}
	a.evictExpiredLocked(now)
	if len(a.reservations) != 1 || a.reservations[0].charID != 2 {
		t.Fatalf("evictExpiredLocked left %v, want only the unexpired reservation", a.reservations)
	}
}

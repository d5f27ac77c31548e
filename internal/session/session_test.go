package session

import (
	"testing"
	"time"
)

func TestExtendToNeverShortens(t *testing.T) {
	s := New(1, "127.0.0.1", time.Hour)
	long := s.ExpiresAt
	s.ExtendTo(time.Second)
	if s.ExpiresAt != long {
		t.Fatalf("ExtendTo shortened the deadline: got %v, want unchanged %v", s.ExpiresAt, long)
	}
	s.ExtendTo(2 * time.Hour)
	if !s.ExpiresAt.After(long) {
		t.Fatalf("ExtendTo with a longer ttl should have pushed the deadline out")
	}
}

func TestForceExpireMakesSessionImmediatelyExpired(t *testing.T) {
	s := New(1, "127.0.0.1", time.Hour)
	if s.Expired(time.Now()) {
		t.Fatalf("fresh session should not be expired")
	}
	s.ForceExpire()
	if !s.Expired(time.Now()) {
		t.Fatalf("force-expired session should report expired")
	}
}

func TestSetDataDoneAndSetViewDoneReportBoth(t *testing.T) {
	s := New(1, "127.0.0.1", time.Hour)
	if both := s.SetDataDone(); both {
		t.Fatalf("SetDataDone alone should not report both done")
	}
	if both := s.SetViewDone(); !both {
		t.Fatalf("SetViewDone after SetDataDone should report both done")
	}
}

func TestRendezvousSignalsAreOneShot(t *testing.T) {
	s := New(1, "127.0.0.1", time.Hour)
	s.RaiseDataToView(SignalAskForKey)
	if got := s.ConsumeDataToView(); got != SignalAskForKey {
		t.Fatalf("ConsumeDataToView = %v, want SignalAskForKey", got)
	}
	if got := s.ConsumeDataToView(); got != SignalNone {
		t.Fatalf("second ConsumeDataToView = %v, want SignalNone (one-shot)", got)
	}
}

func TestMailboxRejectsSecondDeliveryUntilTaken(t *testing.T) {
	s := New(1, "127.0.0.1", time.Hour)
	if ok := s.DeliverMailbox(MQReply{Type: 1}); !ok {
		t.Fatalf("first DeliverMailbox should succeed")
	}
	if ok := s.DeliverMailbox(MQReply{Type: 2}); ok {
		t.Fatalf("second DeliverMailbox should be rejected while the slot is occupied")
	}
	reply, ok := s.TakeMailbox()
	if !ok || reply.Type != 1 {
		t.Fatalf("TakeMailbox = %v, %v, want the first delivered reply", reply, ok)
	}
	if _, ok := s.TakeMailbox(); ok {
		t.Fatalf("TakeMailbox on an empty mailbox should report false")
	}
	if ok := s.DeliverMailbox(MQReply{Type: 3}); !ok {
		t.Fatalf("DeliverMailbox should succeed again once the slot is drained")
	}
}

func TestUpdateSlotMatchesByContentID(t *testing.T) {
	s := New(1, "127.0.0.1", time.Hour)
	s.SetCharacters([]CharacterSlot{{ContentID: 10}, {ContentID: 20}})

	ok := s.UpdateSlot(20, func(slot *CharacterSlot) { slot.Name = "bob" })
	if !ok {
		t.Fatalf("UpdateSlot should find content id 20")
	}
	slots, loaded := s.CharactersSnapshot()
	if !loaded {
		t.Fatalf("CharactersSnapshot should report loaded after SetCharacters")
	}
	if slots[1].Name != "bob" {
		t.Fatalf("slots[1].Name = %q, want %q", slots[1].Name, "bob")
	}
	if slots[0].Name != "" {
		t.Fatalf("UpdateSlot must not touch other slots, slots[0].Name = %q", slots[0].Name)
	}

	if ok := s.UpdateSlot(99, func(slot *CharacterSlot) {}); ok {
		t.Fatalf("UpdateSlot should report false for an unknown content id")
	}
}

func TestOperationTimeoutArmAndDisarm(t *testing.T) {
	s := New(1, "127.0.0.1", time.Hour)
	s.ArmOperationTimeout(&LoginRequest{ContentID: 5}, time.Millisecond)
	if s.PendingLogin().ContentID != 5 {
		t.Fatalf("PendingLogin().ContentID = %d, want 5", s.PendingLogin().ContentID)
	}
	time.Sleep(2 * time.Millisecond)
	if !s.OperationTimedOut(time.Now()) {
		t.Fatalf("expected OperationTimedOut after the deadline passed")
	}
	s.DisarmOperationTimeout()
	if s.OperationTimedOut(time.Now()) {
		t.Fatalf("OperationTimedOut should be false after DisarmOperationTimeout")
	}
}

// Package session implements the per-player Session object (spec §3) and
// the account-id-keyed session registry with secondary IP lookup (spec
// §4.4). Go has no native reentrant mutex; the "session lock is outermost
// and may be held while acquiring other locks" rule from spec §5 is
// honored by structure instead — every exported Session method takes the
// lock exactly once, and any helper that needs to run while the lock is
// already held is unexported and documented as lock-assuming, never
// re-entering Lock() itself.
package session

import (
	"sync"
	"time"
)

// CharacterSlot is one entry of the session's in-memory character list,
// mirroring the account's content-id ordering (spec §3 invariant).
type CharacterSlot struct {
	ContentID    uint32
	Enabled      bool
	CharacterID  uint32
	Name         string
	WorldID      uint32
	WorldName    string
	Race         uint8
	MainJob      uint8
	MainJobLevel uint8
	Zone         uint16
	Nation       uint8
	Face, Hair, Size              uint8
	Head, Body, Hands, Legs, Feet uint16
	Main, Sub                     uint16
}

// Signal is a one-shot rendezvous value exchanged between the data and
// view handlers through the session (spec §4.6/§4.7/§5).
type Signal int

const (
	SignalNone Signal = iota
	SignalAskForKey         // data_to_view = ASK_FOR_KEY
	SignalSendCharacterList // view_to_data = SEND_CHARACTER_LIST
)

// MQReply is the single-slot inbound mailbox the view handler polls for a
// world's reply to an outstanding RPC (spec §4.7/§4.8).
type MQReply struct {
	Type        uint32
	ContentID   uint32
	CharacterID uint32
	ResponseCode uint32
	Payload      []byte
	WorldID      uint32
}

// LoginRequest is the stored copy of a LOGIN_REQUEST, kept for deferred
// completion once CHAR_LOGIN_ACK arrives or operation_timeout fires.
type LoginRequest struct {
	ContentID   uint32
	CharacterID uint32
	Name        string
}

// Session holds all per-player mutable state (spec §3).
type Session struct {
	mu sync.Mutex

	AccountID      uint32
	ClientIP       string
	ExpiresAt      time.Time
	IgnoreIPLookup bool

	Key          [24]byte
	KeyInstalled bool

	Privileges uint32
	Expansions uint32
	Features   uint32
	ClientVersion string

	Characters []CharacterSlot
	Loaded     bool

	DataToView Signal
	ViewToData Signal

	DataDone bool
	ViewDone bool

	mailbox      *MQReply
	pendingLogin *LoginRequest

	OperationDeadline time.Time
}

func New(accountID uint32, ip string, ttl time.Duration) *Session {
	return &Session{
		AccountID: accountID,
		ClientIP:  ip,
		ExpiresAt: time.Now().Add(ttl),
	}
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// Expired reports whether the session's TTL has lapsed.
func (s *Session) Expired(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.ExpiresAt.After(now)
}

// ExtendTo extends the TTL to at least now+ttl, never shortening it.
func (s *Session) ExtendTo(ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	candidate := time.Now().Add(ttl)
	if candidate.After(s.ExpiresAt) {
		s.ExpiresAt = candidate
	}
}

// ForceExpire zeroes the TTL, making the session immediately eligible for
// a sweep (spec §3 lifecycle: "forces expires_at = 0").
func (s *Session) ForceExpire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ExpiresAt = time.Time{}
}

// InstallKey stores the client's session key and extends the TTL by 30s
// (spec §4.6 on KEY).
func (s *Session) InstallKey(key [24]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Key = key
	s.KeyInstalled = true
	candidate := time.Now().Add(30 * time.Second)
	if candidate.After(s.ExpiresAt) {
		s.ExpiresAt = candidate
	}
}

func (s *Session) KeyMaterial() ([24]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Key, s.KeyInstalled
}

// SetDataDone and SetViewDone report whether both are now set, in which
// case the caller must force-expire the session (spec §3 lifecycle).
func (s *Session) SetDataDone() (bothDone bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DataDone = true
	return s.DataDone && s.ViewDone
}

func (s *Session) SetViewDone() (bothDone bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ViewDone = true
	return s.DataDone && s.ViewDone
}

// RaiseDataToView and ConsumeDataToView implement the one-shot
// data_to_view signal; the receiver clears it after acting.
func (s *Session) RaiseDataToView(sig Signal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DataToView = sig
}

func (s *Session) ConsumeDataToView() Signal {
	s.mu.Lock()
	defer s.mu.Unlock()
	sig := s.DataToView
	s.DataToView = SignalNone
	return sig
}

func (s *Session) RaiseViewToData(sig Signal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ViewToData = sig
}

func (s *Session) ConsumeViewToData() Signal {
	s.mu.Lock()
	defer s.mu.Unlock()
	sig := s.ViewToData
	s.ViewToData = SignalNone
	return sig
}

// SetCharacters installs the session's character list snapshot, in
// content-id order, and marks it loaded.
func (s *Session) SetCharacters(slots []CharacterSlot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Characters = slots
	s.Loaded = true
}

func (s *Session) CharactersSnapshot() ([]CharacterSlot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CharacterSlot, len(s.Characters))
	copy(out, s.Characters)
	return out, s.Loaded
}

// UpdateSlot mutates one character slot in place, matched by ContentID.
func (s *Session) UpdateSlot(contentID uint32, mutate func(*CharacterSlot)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Characters {
		if s.Characters[i].ContentID == contentID {
			mutate(&s.Characters[i])
			return true
		}
	}
	return false
}

// DeliverMailbox places a world reply in the session's single-slot
// mailbox. Returns false if a message is already pending — "caller must
// not race" (spec §4.8).
func (s *Session) DeliverMailbox(reply MQReply) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mailbox != nil {
		return false
	}
	s.mailbox = &reply
	return true
}

// TakeMailbox removes and returns the pending mailbox message, if any.
func (s *Session) TakeMailbox() (MQReply, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mailbox == nil {
		return MQReply{}, false
	}
	reply := *s.mailbox
	s.mailbox = nil
	return reply, true
}

// ArmOperationTimeout stores pending and arms the 10s world-RPC deadline
// (spec §4.7/§5).
func (s *Session) ArmOperationTimeout(pending *LoginRequest, timeout time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingLogin = pending
	s.OperationDeadline = time.Now().Add(timeout)
}

func (s *Session) DisarmOperationTimeout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.OperationDeadline = time.Time{}
}

func (s *Session) OperationTimedOut(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.OperationDeadline.IsZero() && now.After(s.OperationDeadline)
}

func (s *Session) PendingLogin() *LoginRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingLogin
}

package session

import (
	"errors"
	"sync"
	"time"
)

// ErrSessionConflict is returned by Init when accountID already holds a
// live session on a different IP (spec §4.4 init).
var ErrSessionConflict = errors.New("session: account already has a session on another ip")

// Registry is the account-id-keyed session table with a secondary IP
// index, per spec §4.4. One account may hold at most one live session;
// Init extends it on a repeat login from the same IP and rejects a
// repeat login from a different one (spec §3 invariant).
type Registry struct {
	mu       sync.RWMutex
	byAccount map[uint32]*Session
	byIP      map[string]map[uint32]struct{} // ip -> set of account ids, honors ignore_ip_lookup
}

func NewRegistry() *Registry {
	return &Registry{
		byAccount: make(map[uint32]*Session),
		byIP:      make(map[string]map[uint32]struct{}),
	}
}

// Init implements spec §4.4's init(account_id, ip, ttl): if accountID
// already holds a live session, it succeeds only when ip matches the
// stored one, extending its TTL to at least now+ttl; a mismatched IP
// fails with ErrSessionConflict instead of evicting the existing session.
// With no existing session, installs a fresh one.
func (r *Registry) Init(accountID uint32, ip string, ttl time.Duration) (*Session, error) {
	r.mu.Lock()
	if old, ok := r.byAccount[accountID]; ok {
		if !old.Expired(time.Now()) {
			r.mu.Unlock()
			if old.ClientIP != ip {
				return nil, ErrSessionConflict
			}
			old.ExtendTo(ttl)
			return old, nil
		}
		// A lapsed session that has not been swept yet is replaced below.
		r.unindexLocked(old)
	}

	s := New(accountID, ip, ttl)
	r.byAccount[accountID] = s
	if !s.IgnoreIPLookup {
		set, ok := r.byIP[ip]
		if !ok {
			set = make(map[uint32]struct{})
			r.byIP[ip] = set
		}
		set[accountID] = struct{}{}
	}
	r.mu.Unlock()
	return s, nil
}

// SetIgnoreIPLookup flips s's opt-out flag and removes it from the IP
// index immediately, so a subsequent LookupByIP from the data handler
// cannot collide with it (spec §4.7 "it sets ignore_ip_lookup = true").
func (r *Registry) SetIgnoreIPLookup(s *Session) {
	s.mu.Lock()
	s.IgnoreIPLookup = true
	s.mu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.unindexLocked(s)
}

func (r *Registry) Get(accountID uint32) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byAccount[accountID]
	return s, ok
}

// LookupByIP returns every session whose ClientIP matches ip and that did
// not opt out via ignore_ip_lookup (spec §4.4 lookup_by_ip).
func (r *Registry) LookupByIP(ip string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, ok := r.byIP[ip]
	if !ok {
		return nil
	}
	out := make([]*Session, 0, len(set))
	for accountID := range set {
		if s, ok := r.byAccount[accountID]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Delete removes accountID's session, if it is still s — a caller holding
// a stale pointer from before an eviction must not delete the new one.
func (r *Registry) Delete(accountID uint32, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.byAccount[accountID]; ok && cur == s {
		r.unindexLocked(cur)
		delete(r.byAccount, accountID)
	}
}

// unindexLocked assumes mu is already held for writing.
func (r *Registry) unindexLocked(s *Session) {
	set, ok := r.byIP[s.ClientIP]
	if !ok {
		return
	}
	delete(set, s.AccountID)
	if len(set) == 0 {
		delete(r.byIP, s.ClientIP)
	}
}

// SweepExpired removes and returns every session whose TTL has lapsed as
// of now, for the caller to force-close sockets for (spec §4.4
// sweep_expired, typically run on a ticker from cmd/loginserver).
func (r *Registry) SweepExpired(now time.Time) []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []*Session
	for accountID, s := range r.byAccount {
		s.mu.Lock()
		lapsed := !s.ExpiresAt.After(now)
		s.mu.Unlock()
		if lapsed {
			r.unindexLocked(s)
			delete(r.byAccount, accountID)
			expired = append(expired, s)
		}
	}
	return expired
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byAccount)
}

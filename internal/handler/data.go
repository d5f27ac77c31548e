// data.go implements the bootloader-facing data handler (spec §4.6): a
// one-byte request/response handshake that hands the client's session key
// to the session object and rendezvous-signals the view handler.
package handler

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/ixfflogin/server/internal/session"
	"github.com/ixfflogin/server/internal/wire"
)

type dataState int

const (
	dataAwaitAccountID dataState = iota
	dataAwaitKey
	dataAwaitViewSignal
	dataDone
)

// ServeData accepts data-port connections, enforcing the same
// max_client_connections-per-IP cap as the auth port since the limit is
// defined across all ports, not per-port (spec §4.5).
func ServeData(ctx context.Context, ln net.Listener, deps *Deps) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			deps.Log.Error("data accept failed", zap.Error(err))
			continue
		}
		ip := hostOf(conn.RemoteAddr())
		ok, err := deps.Limiter.TryAcquire(ctx, ip, deps.Config.Auth.MaxClientConnections)
		if err != nil {
			deps.Log.Error("conn limiter error", zap.Error(err))
		}
		if !ok {
			conn.Close()
			continue
		}
		go func() {
			defer deps.Limiter.Release(ctx, ip)
			HandleDataConn(ctx, conn, deps)
		}()
	}
}

// HandleDataConn drives the await_account_id -> await_key ->
// await_view_signal -> done state machine. Any protocol violation drops
// the connection without a response (spec §4.6).
func HandleDataConn(ctx context.Context, conn net.Conn, deps *Deps) {
	defer conn.Close()
	ip := hostOf(conn.RemoteAddr())
	log := deps.Log.With(zap.String("remote", conn.RemoteAddr().String()))

	if _, err := conn.Write([]byte{wire.DataSendAccountID}); err != nil {
		return
	}

	var sess *session.Session
	state := dataAwaitAccountID

	for state != dataDone {
		select {
		case <-ctx.Done():
			return
		default:
		}

		conn.SetReadDeadline(time.Now().Add(15 * time.Second))
		typ := make([]byte, 1)
		if _, err := readFull(conn, typ); err != nil {
			return
		}

		switch typ[0] {
		case wire.DataClientAccountID:
			if state != dataAwaitAccountID {
				return
			}
			payload := make([]byte, 8)
			if _, err := readFull(conn, payload); err != nil {
				return
			}
			r := wire.NewReader(payload)
			accountID := r.ReadU32()
			_ = r.ReadU32() // server_address, unused by this side

			s, ok := deps.Sessions.Get(accountID)
			if !ok {
				return
			}
			s.Lock()
			ipMatches := s.ClientIP == ip
			notExpired := s.ExpiresAt.After(time.Now())
			s.Unlock()
			if !ipMatches || !notExpired {
				return
			}
			sess = s
			state = dataAwaitKey

			if sig := sess.ConsumeDataToView(); sig == session.SignalAskForKey {
				if _, err := conn.Write([]byte{wire.DataSendKey}); err != nil {
					return
				}
			}

		case wire.DataClientKey:
			if state != dataAwaitKey || sess == nil {
				return
			}
			raw := make([]byte, 24)
			if _, err := readFull(conn, raw); err != nil {
				return
			}
			var key [24]byte
			copy(key[:], raw)
			sess.InstallKey(key)

			time.Sleep(time.Second) // grace delay before the list, per spec §4.6

			if err := writeMinimalCharList(ctx, conn, deps, sess.AccountID); err != nil {
				return
			}
			sess.RaiseViewToData(session.SignalSendCharacterList)
			if both := sess.SetDataDone(); both {
				sess.ForceExpire()
			}
			state = dataDone

		default:
			log.Debug("unknown data-port packet type", zap.Uint8("type", typ[0]))
			return
		}
	}
}

// writeMinimalCharList sends {type: SERVER_CHAR_LIST, count, entries...}
// with only content_id and character_id populated per slot. This resolves
// the "distinct prefix vs. overlay" open question from spec §9 by treating
// type and count as a header distinct from the first entry's bytes.
//
// Loaded straight from the account's repositories, the same way
// handler/view/charlist.go's sendCharacterList does: this runs before the
// client ever opens the view port (spec §8 scenario 1), so
// session.SetCharacters has not been called yet and the session's
// in-memory character list is still empty.
func writeMinimalCharList(ctx context.Context, conn net.Conn, deps *Deps, accountID uint32) error {
	contents, err := deps.Contents.ListByAccount(ctx, accountID)
	if err != nil {
		return err
	}
	chars, err := deps.Characters.ListByAccount(ctx, accountID)
	if err != nil {
		return err
	}
	characterIDByContent := make(map[uint32]uint32, len(chars))
	for _, row := range chars {
		characterIDByContent[row.ContentID] = row.CharacterID
	}

	w := wire.NewWriter()
	w.WriteU8(wire.DataServerCharList)
	w.WriteU8(uint8(len(contents)))
	for _, c := range contents {
		w.WriteU32(c.ContentID)
		w.WriteU32(characterIDByContent[c.ContentID])
	}
	_, err = conn.Write(w.Bytes())
	return err
}

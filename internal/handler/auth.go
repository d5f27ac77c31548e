// auth.go implements the bootloader-facing auth handler (spec §4.5).
// Grounded on the teacher's per-connection goroutine + ReadFrame/WriteFrame
// idiom (internal/net/session.go, internal/net/codec.go), adapted to this
// protocol's fixed-size struct frame instead of the teacher's length-
// prefixed variable frame.
package handler

import (
	"context"
	"net"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/ixfflogin/server/internal/wire"
)

const (
	authRequestSize  = 16 + 16 + 1 + 16 + 50 + 157 // 256
	authResponseSize = 1 + 4 + 2 + 9               // 16
)

type authRequest struct {
	username    string
	password    string
	command     uint8
	newPassword string
	email       string
	malformed   bool
}

func decodeAuthRequest(buf []byte) authRequest {
	r := wire.NewReader(buf)
	var req authRequest

	username, ok := r.ReadFixedString(16)
	if !ok {
		req.malformed = true
	}
	password, ok := r.ReadFixedString(16)
	if !ok {
		req.malformed = true
	}
	req.command = r.ReadU8()
	newPassword, ok := r.ReadFixedString(16)
	if !ok && req.command == wire.AuthCmdChangePassword {
		req.malformed = true
	}
	email, _ := r.ReadFixedString(50)
	r.Skip(157)

	req.username, req.password, req.newPassword, req.email = username, password, newPassword, email
	return req
}

func writeAuthResponse(conn net.Conn, responseType uint8, accountID uint32, failureReason uint16) error {
	w := wire.NewWriter()
	w.WriteU8(responseType)
	w.WriteU32(accountID)
	w.WriteU16(failureReason)
	w.WriteZero(9)
	_, err := conn.Write(w.Bytes())
	return err
}

// ServeAuth accepts connections on the auth port and runs HandleAuthConn
// per connection.
func ServeAuth(ctx context.Context, ln net.Listener, deps *Deps) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			deps.Log.Error("auth accept failed", zap.Error(err))
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
			HandleAuthConn(ctx, conn, deps)
		}()
	}
}

func hostOf(addr net.Addr) string {
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}

// HandleAuthConn runs the auth protocol for one accepted connection until
// it disconnects or exceeds its failed-attempt budget (spec §4.5).
func HandleAuthConn(ctx context.Context, conn net.Conn, deps *Deps) {
	defer conn.Close()
	remote := conn.RemoteAddr().String()
	ip := hostOf(conn.RemoteAddr())
	log := deps.Log.With(zap.String("remote", remote))

	for {
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		buf := make([]byte, authRequestSize)
		if _, err := readFull(conn, buf); err != nil {
			return
		}

		req := decodeAuthRequest(buf)
		if req.malformed {
			writeAuthResponse(conn, wire.MalformedPacket, 0, 0)
			continue
		}

		var ok bool
		switch req.command {
		case wire.AuthCmdLogin:
			ok = handleLogin(ctx, conn, deps, ip, req)
		case wire.AuthCmdCreate:
			ok = handleCreate(ctx, conn, deps, ip, req)
		case wire.AuthCmdChangePassword:
			ok = handleChangePassword(ctx, conn, deps, req)
		default:
			writeAuthResponse(conn, wire.MalformedPacket, 0, 0)
			continue
		}

		if ok {
			deps.Limiter.ClearAttempts(ctx, remote)
			continue
		}
		n, err := deps.Limiter.RecordFailedAttempt(ctx, remote)
		if err != nil {
			log.Warn("attempt counter error", zap.Error(err))
		}
		if n >= deps.Config.Auth.MaxLoginAttempts {
			log.Info("dropping connection: too many failed attempts")
			return
		}
	}
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func handleLogin(ctx context.Context, conn net.Conn, deps *Deps, ip string, req authRequest) bool {
	acct, err := deps.Accounts.Load(ctx, req.username)
	if err != nil || acct == nil {
		writeAuthResponse(conn, wire.LoginFailed, 0, 0)
		return false
	}
	if !acct.Enabled() {
		writeAuthResponse(conn, wire.LoginFailed, 0, 0)
		return false
	}
	if !deps.Accounts.ValidatePassword(acct, req.password) {
		writeAuthResponse(conn, wire.LoginFailed, 0, 0)
		return false
	}

	s, err := deps.Sessions.Init(acct.AccountID, ip, deps.Config.Auth.SessionTimeout())
	if err != nil {
		writeAuthResponse(conn, wire.SessionConflict, acct.AccountID, 0)
		return false
	}
	s.Lock()
	s.Privileges = acct.Privileges
	s.Expansions = acct.Expansions
	s.Features = acct.Features
	s.Unlock()
	deps.Accounts.SetOnline(ctx, acct.AccountID, true)

	return writeAuthResponse(conn, wire.LoginSuccessful, acct.AccountID, 0) == nil
}

func handleCreate(ctx context.Context, conn net.Conn, deps *Deps, ip string, req authRequest) bool {
	taken, err := deps.Accounts.UsernameTaken(ctx, req.username)
	if err != nil || taken {
		writeAuthResponse(conn, wire.CreateFailed, 0, 0)
		return false
	}
	if !passwordPolicyOK(req.password) {
		writeAuthResponse(conn, wire.CreateFailed, 0, 0)
		return false
	}

	acct, err := deps.Accounts.Create(ctx, req.username, req.password, int16(deps.Config.Auth.NewAccountContentIDs))
	if err != nil {
		writeAuthResponse(conn, wire.CreateFailed, 0, 0)
		return false
	}

	s, err := deps.Sessions.Init(acct.AccountID, ip, deps.Config.Auth.SessionTimeout())
	if err != nil {
		writeAuthResponse(conn, wire.SessionConflict, acct.AccountID, 0)
		return false
	}
	s.Lock()
	s.Privileges = acct.Privileges
	s.Expansions = acct.Expansions
	s.Features = acct.Features
	s.Unlock()

	return writeAuthResponse(conn, wire.LoginSuccessful, acct.AccountID, 0) == nil
}

func handleChangePassword(ctx context.Context, conn net.Conn, deps *Deps, req authRequest) bool {
	acct, err := deps.Accounts.Load(ctx, req.username)
	if err != nil || acct == nil {
		writeAuthResponse(conn, wire.PWChangeFailed, 0, 0)
		return false
	}
	// account_disabled sessions are rejected except for change-password.
	if !deps.Accounts.ValidatePassword(acct, req.password) {
		writeAuthResponse(conn, wire.PWChangeFailed, 0, 0)
		return false
	}
	if !passwordPolicyOK(req.newPassword) {
		writeAuthResponse(conn, wire.PWChangeFailed, 0, 0)
		return false
	}
	if err := deps.Accounts.SetPassword(ctx, acct.AccountID, req.newPassword); err != nil {
		writeAuthResponse(conn, wire.PWChangeFailed, 0, 0)
		return false
	}
	return writeAuthResponse(conn, wire.LoginSuccessful, acct.AccountID, 0) == nil
}

// passwordPolicyOK enforces "≥8 chars, ≥3 of {upper, lower, digit, other}"
// (spec §4.5, boundary case in §8).
func passwordPolicyOK(pw string) bool {
	if len(pw) < 8 {
		return false
	}
	var upper, lower, digit, other bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			other = true
		}
	}
	classes := 0
	for _, v := range []bool{upper, lower, digit, other} {
		if v {
			classes++
		}
	}
	return classes >= 3
}

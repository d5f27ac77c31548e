// Package view implements the view-port handler (spec §4.7): the largest
// state machine in the system, driving feature negotiation, world and
// character listing, two-phase character creation, deletion and login
// hand-off. Grounded on the teacher's per-connection goroutine idiom
// (internal/net/session.go) and opcode/state dispatch pattern
// (internal/net/packet/registry.go), generalized from opcode-gated
// session states to this protocol's rendezvous-and-timeout driven loop.
package view

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/ixfflogin/server/internal/broker"
	"github.com/ixfflogin/server/internal/handler"
	"github.com/ixfflogin/server/internal/session"
	"github.com/ixfflogin/server/internal/wire"
)

// operationTimeout bounds every outbound world RPC (spec §4.7/§5).
const operationTimeout = 10 * time.Second

// conn bundles one accepted view-port connection with its bound session.
type conn struct {
	nc   net.Conn
	sess *session.Session
	deps *handler.Deps
	log  *zap.Logger

	requestedList bool // client has sent GET_CHARACTER_LIST at least once
	dataReady     bool // data handler has signaled SEND_CHARACTER_LIST
	shouldClose   bool // login hand-off completed; the client will reconnect to the zone

	pendingReserve *pendingReserve
	pendingConfirm *pendingConfirm
	pendingDelete  *pendingDelete
}

type pendingReserve struct {
	contentID     uint32
	suggestedID   uint32
	worldID       uint32
	name          string
}

type pendingConfirm struct {
	contentID uint32
	worldID   uint32
	entry     broker.CharacterEntry
}

type pendingDelete struct {
	contentID   uint32
	characterID uint32
}

// Serve accepts view-port connections, enforcing the same
// max_client_connections-per-IP cap as the auth and data ports since the
// limit is defined across all ports, not per-port (spec §4.5).
func Serve(ctx context.Context, ln net.Listener, deps *handler.Deps) {
	for {
		nc, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			deps.Log.Error("view accept failed", zap.Error(err))
			continue
		}
		ip, _, _ := net.SplitHostPort(nc.RemoteAddr().String())
		ok, err := deps.Limiter.TryAcquire(ctx, ip, deps.Config.Auth.MaxClientConnections)
		if err != nil {
			deps.Log.Error("conn limiter error", zap.Error(err))
		}
		if !ok {
			nc.Close()
			continue
		}
		go func() {
			defer deps.Limiter.Release(ctx, ip)
			HandleConn(ctx, nc, deps)
		}()
	}
}

// HandleConn runs the view handler for one accepted connection (spec §4.7).
func HandleConn(ctx context.Context, nc net.Conn, deps *handler.Deps) {
	defer nc.Close()

	ip, _, _ := net.SplitHostPort(nc.RemoteAddr().String())
	sessions := deps.Sessions.LookupByIP(ip)
	if len(sessions) == 0 {
		deps.Log.Debug("view connect with no matching session", zap.String("ip", ip))
		return
	}
	sess := sessions[0]
	deps.Sessions.SetIgnoreIPLookup(sess)
	sess.ExtendTo(600 * time.Second)

	c := &conn{nc: nc, sess: sess, deps: deps, log: deps.Log.With(zap.Uint32("account_id", sess.AccountID))}
	c.run(ctx)
}

// run is the per-iteration main loop: poll the socket up to 1s; dispatch
// a frame if one arrived; check the rendezvous signals; check the
// mailbox; check operation_timeout (spec §4.7).
func (c *conn) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			c.finish()
			return
		default:
		}

		c.nc.SetReadDeadline(time.Now().Add(time.Second))
		frame, err := wire.ReadFrame(c.nc)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				// no frame this tick, fall through to signal/mailbox/timeout checks
			} else {
				c.finish()
				return
			}
		} else if !c.dispatch(frame) {
			c.sendError(wire.ErrMapConnectFailed)
			c.finish()
			return
		}

		if sig := c.sess.ConsumeViewToData(); sig == session.SignalSendCharacterList {
			c.dataReady = true
			if c.requestedList {
				c.sendCharacterList()
			}
		}

		c.checkMailbox()
		if c.shouldClose {
			return
		}

		if c.sess.OperationTimedOut(time.Now()) {
			c.sess.DisarmOperationTimeout()
			c.sendError(wire.ErrMapConnectFailed)
			c.finish()
			return
		}
	}
}

func (c *conn) dispatch(f *wire.Frame) bool {
	switch f.Type {
	case wire.PktGetFeatures:
		return c.handleGetFeatures(f.Payload)
	case wire.PktGetWorldList:
		return c.handleGetWorldList()
	case wire.PktGetCharacterList:
		return c.handleGetCharacterList()
	case wire.PktLoginRequest:
		return c.handleLoginRequest(f.Payload)
	case wire.PktCreateCharacter:
		return c.handleCreateCharacter(f.Payload)
	case wire.PktCreateCharConfirm:
		return c.handleCreateCharConfirm(f.Payload)
	case wire.PktDeleteCharacter:
		return c.handleDeleteCharacter(f.Payload)
	default:
		c.log.Debug("ignoring unrecognized view packet type", zap.Uint32("type", f.Type))
		return true
	}
}

func (c *conn) sendError(code uint32) {
	w := wire.NewWriter()
	w.WriteU32(0)
	w.WriteU32(code)
	wire.WriteFrame(c.nc, wire.PktError, w.Bytes())
}

func (c *conn) sendDone() {
	wire.WriteFrame(c.nc, wire.PktDone, nil)
}

// finish marks view_done and force-expires the session if the data
// handler has also finished (spec §3 session lifecycle).
func (c *conn) finish() {
	if both := c.sess.SetViewDone(); both {
		c.sess.ForceExpire()
	}
}

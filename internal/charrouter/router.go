// Package charrouter implements the single ingress point for world->login
// broker traffic (spec §4.8): parse the CHAR_MQ_MESSAGE_HEADER prefix,
// route *_ACK types to the owning session's mailbox, and CHAR_UPDATE
// directly into the character-update routine (spec §4.9). Grounded on
// original_source/src/new-login/CharMessageHnd.cpp's HandleRequest
// dispatch and on the teacher's Handler-as-capability idiom used by
// broker.Connection.RegisterHandler.
package charrouter

import (
	"context"

	"go.uber.org/zap"

	"github.com/ixfflogin/server/internal/broker"
	"github.com/ixfflogin/server/internal/session"
	"github.com/ixfflogin/server/internal/store"
)

// Router owns the dependencies needed to route and act on inbound broker
// messages for one world.
type Router struct {
	worldID    uint32
	sessions   *session.Registry
	characters *store.CharacterRepo
	log        *zap.Logger
}

func New(worldID uint32, sessions *session.Registry, characters *store.CharacterRepo, log *zap.Logger) *Router {
	return &Router{worldID: worldID, sessions: sessions, characters: characters, log: log.With(zap.Uint32("world_id", worldID))}
}

// Handle is a broker.Handler: returns false (unhandled) for any message
// type outside the claimed dispatch range so later handlers can inspect it.
func (r *Router) Handle(body []byte) bool {
	header, rest, ok := broker.DecodeHeader(body)
	if !ok {
		r.log.Warn("broker message shorter than CHAR_MQ_MESSAGE_HEADER, dropping")
		return true
	}
	if !header.Type.InDispatchRange() {
		return false
	}

	switch header.Type {
	case broker.MsgCharLoginAck, broker.MsgCharCreateAck, broker.MsgCharDeleteAck, broker.MsgCharReserveAck:
		r.routeToMailbox(header, rest)
	case broker.MsgCharUpdate:
		r.handleCharUpdate(header, rest)
	default:
		r.log.Debug("broker message in dispatch range but no handler", zap.Uint32("type", uint32(header.Type)))
	}
	return true
}

func (r *Router) routeToMailbox(header broker.Header, payload []byte) {
	s, ok := r.sessions.Get(header.AccountID)
	if !ok {
		r.log.Warn("ack for unknown account, dropping", zap.Uint32("account_id", header.AccountID))
		return
	}

	var responseCode uint32
	if len(payload) >= 4 {
		responseCode = uint32(payload[0]) | uint32(payload[1])<<8 | uint32(payload[2])<<16 | uint32(payload[3])<<24
	}

	delivered := s.DeliverMailbox(session.MQReply{
		Type:         uint32(header.Type),
		ContentID:    header.ContentID,
		CharacterID:  header.CharacterID,
		ResponseCode: responseCode,
		Payload:      payload,
		WorldID:      r.worldID,
	})
	if !delivered {
		r.log.Warn("mailbox already occupied, dropping reply — caller must not race",
			zap.Uint32("account_id", header.AccountID))
	}
}

func (r *Router) handleCharUpdate(header broker.Header, payload []byte) {
	entry, ok := broker.DecodeCharacterEntry(payload)
	if !ok {
		r.log.Warn("malformed CHAR_UPDATE payload, dropping")
		return
	}
	if uint32(entry.WorldID) != r.worldID {
		r.log.Warn("CHAR_UPDATE world id mismatch, rejecting as spoofing attempt",
			zap.Uint8("entry_world_id", entry.WorldID), zap.Uint32("originating_world_id", r.worldID))
		return
	}

	if err := UpdateCharacter(context.Background(), r.characters, entry); err != nil {
		r.log.Warn("update_character failed", zap.Error(err))
	}
}

// handler.go wires Allocator up as a broker.Handler so a world process can
// answer login's CHAR_RESERVE/CHAR_CREATE/CHAR_DELETE requests (spec
// §4.10). Grounded on the same Handler-capability idiom as
// internal/charrouter/router.go.
package worldagent

import (
	"context"
	"encoding/binary"

	"go.uber.org/zap"

	"github.com/ixfflogin/server/internal/broker"
)

type Handler struct {
	alloc *Allocator
	conn  *broker.Connection
	log   *zap.Logger
}

func NewHandler(alloc *Allocator, conn *broker.Connection, log *zap.Logger) *Handler {
	return &Handler{alloc: alloc, conn: conn, log: log}
}

// Handle is a broker.Handler. It answers CHAR_RESERVE, CHAR_CREATE and
// CHAR_DELETE; anything else is left for other handlers.
func (h *Handler) Handle(body []byte) bool {
	header, rest, ok := broker.DecodeHeader(body)
	if !ok {
		return true
	}

	switch header.Type {
	case broker.MsgCharReserve:
		h.handleReserve(header)
	case broker.MsgCharCreate:
		h.handleCreate(header, rest)
	case broker.MsgCharDelete:
		h.handleDelete(header)
	default:
		return false
	}
	return true
}

func (h *Handler) handleReserve(header broker.Header) {
	ctx := context.Background()
	err := h.alloc.Reserve(ctx, header.AccountID, header.ContentID, header.CharacterID)
	h.ack(broker.MsgCharReserveAck, header, responseCodeFor(err))
}

func (h *Handler) handleCreate(header broker.Header, payload []byte) {
	ctx := context.Background()
	entry, ok := broker.DecodeCharacterEntry(payload)
	if !ok {
		h.ack(broker.MsgCharCreateAck, header, 1)
		return
	}
	assignedID, err := h.alloc.Create(ctx, header.CharacterID, entry)
	if err != nil {
		h.log.Warn("create failed", zap.Error(err))
		h.ack(broker.MsgCharCreateAck, header, 1)
		return
	}
	header.CharacterID = assignedID
	h.ack(broker.MsgCharCreateAck, header, 0)
}

func (h *Handler) handleDelete(header broker.Header) {
	ctx := context.Background()
	err := h.alloc.Delete(ctx, header.CharacterID)
	h.ack(broker.MsgCharDeleteAck, header, responseCodeFor(err))
}

func responseCodeFor(err error) uint32 {
	if err != nil {
		return 1
	}
	return 0
}

func (h *Handler) ack(msgType broker.MessageType, header broker.Header, responseCode uint32) {
	header.Type = msgType
	body := header.Encode()
	var rc [4]byte
	binary.LittleEndian.PutUint32(rc[:], responseCode)
	body = append(body, rc[:]...)
	if err := h.conn.Send(body); err != nil {
		h.log.Warn("failed to send ack", zap.Error(err))
	}
}

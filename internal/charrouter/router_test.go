package charrouter

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ixfflogin/server/internal/broker"
	"github.com/ixfflogin/server/internal/session"
)

func TestHandleRoutesAckToTheOwningSessionMailbox(t *testing.T) {
	sessions := session.NewRegistry()
	s, err := sessions.Init(77, "1.2.3.4", time.Hour)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	r := New(5, sessions, nil, zap.NewNop())

	header := broker.Header{Type: broker.MsgCharLoginAck, ContentID: 1, CharacterID: 2, AccountID: 77}
	body := append(header.Encode(), 0, 0, 0, 0) // response_code = 0

	handled := r.Handle(body)
	if !handled {
		t.Fatalf("Handle should claim a message type inside its dispatch range")
	}

	reply, ok := s.TakeMailbox()
	if !ok {
		t.Fatalf("expected the ack to land in the session's mailbox")
	}
	if reply.Type != uint32(broker.MsgCharLoginAck) || reply.ContentID != 1 || reply.CharacterID != 2 {
		t.Fatalf("mailbox reply = %+v, want type/content/character to match the header", reply)
	}
	if reply.WorldID != 5 {
		t.Fatalf("reply.WorldID = %d, want the router's own bound world id (5), not anything parsed from the payload", reply.WorldID)
	}
}

func TestHandleIgnoresAckForUnknownAccount(t *testing.T) {
	sessions := session.NewRegistry()
	r := New(5, sessions, nil, zap.NewNop())

	header := broker.Header{Type: broker.MsgCharDeleteAck, AccountID: 999}
	body := append(header.Encode(), 0, 0, 0, 0)

	if handled := r.Handle(body); !handled {
		t.Fatalf("Handle should still report handled even when the account is unknown")
	}
}

func TestHandleDeclinesMessageOutsideDispatchRange(t *testing.T) {
	r := New(5, session.NewRegistry(), nil, zap.NewNop())
	header := broker.Header{Type: broker.MsgCharCreateAck}
	if handled := r.Handle(header.Encode()); handled {
		t.Fatalf("Handle should decline a type outside [GET_ACCOUNT_CHARS, CHAR_RESERVE_ACK] so later handlers can see it")
	}
}

func TestHandleDropsTooShortMessage(t *testing.T) {
	r := New(5, session.NewRegistry(), nil, zap.NewNop())
	if handled := r.Handle([]byte{1, 2, 3}); !handled {
		t.Fatalf("Handle should swallow (not re-dispatch) a body shorter than the header")
	}
}

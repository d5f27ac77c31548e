package view

import "github.com/ixfflogin/server/internal/broker"

// checkMailbox drains the session's single-slot mailbox and routes the
// reply to whichever pending operation it completes (spec §4.7/§4.8).
func (c *conn) checkMailbox() {
	reply, ok := c.sess.TakeMailbox()
	if !ok {
		return
	}

	switch broker.MessageType(reply.Type) {
	case broker.MsgCharLoginAck:
		c.onLoginAck(reply)
	case broker.MsgCharReserveAck:
		c.onReserveAck(reply)
	case broker.MsgCharCreateAck:
		c.onCreateAck(reply)
	case broker.MsgCharDeleteAck:
		c.onDeleteAck(reply)
	default:
		c.log.Debug("ignoring mailbox reply of unrecognized type")
	}
}

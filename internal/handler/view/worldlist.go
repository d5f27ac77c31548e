package view

import "github.com/ixfflogin/server/internal/wire"

// handleGetWorldList sends the admin world list if the account has
// HAS_TEST_ACCESS, else the user list (spec §4.7 "World list").
func (c *conn) handleGetWorldList() bool {
	c.sess.Lock()
	hasTestAccess := c.sess.Privileges&wire.PrivHasTestAccess != 0
	c.sess.Unlock()

	var payload []byte
	if hasTestAccess {
		payload = c.deps.Worlds.AdminWorldsPacket()
	} else {
		payload = c.deps.Worlds.UserWorldsPacket()
	}
	return wire.WriteFrame(c.nc, wire.PktWorldList, payload) == nil
}

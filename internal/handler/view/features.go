package view

import (
	"context"

	"github.com/ixfflogin/server/internal/wire"
)

const versionOffset = 88
const versionLen = 10

// handleGetFeatures parses the 10-byte client version at offset 88,
// enforces version_lock, loads and caches expansions/features on the
// session, and replies FEATURES_LIST (spec §4.7 "Features (version gate)").
func (c *conn) handleGetFeatures(payload []byte) bool {
	r := wire.NewReader(payload)
	r.Skip(versionOffset)
	clientVersion, _ := r.ReadFixedString(versionLen)

	expected := c.deps.Config.Auth.ExpectedClientVersion
	lock := c.deps.Config.Auth.VersionLock
	if !versionAllowed(lock, clientVersion, expected) {
		c.sendError(wire.ErrVersionMismatch)
		return true
	}

	acct, err := c.deps.Accounts.LoadByID(context.Background(), c.sess.AccountID)
	if err != nil || acct == nil {
		c.sendError(wire.ErrMapConnectFailed)
		return true
	}

	c.sess.Lock()
	c.sess.Expansions = acct.Expansions
	c.sess.Features = acct.Features
	c.sess.Privileges = acct.Privileges
	c.sess.ClientVersion = clientVersion
	c.sess.Unlock()

	w := wire.NewWriter()
	w.WriteU32(wire.FeaturesUnknownConstant)
	w.WriteU32(acct.Expansions)
	w.WriteU32(acct.Features)
	return wire.WriteFrame(c.nc, wire.PktFeaturesList, w.Bytes()) == nil
}

// versionAllowed implements version_lock ∈ {0 disabled, 1 exact, 2 minimum}
// (spec §4.7, boundary case in §8: client "30191004_0" vs server
// "30200101_0" under lock=2 is rejected; "30210101_0" is accepted).
func versionAllowed(lock int, client, expected string) bool {
	switch lock {
	case 0:
		return true
	case 1:
		return client == expected
	case 2:
		return client >= expected
	default:
		return true
	}
}

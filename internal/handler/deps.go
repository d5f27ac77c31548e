// Package handler implements the three client-facing protocol handlers —
// auth, data and view (spec §4.5–§4.7) — plus the shared dependency
// bundle they're constructed with. Grounded on the teacher's
// internal/handler.Deps dependency-injection struct, generalized from an
// in-game handler bundle to this protocol's repositories and registries.
package handler

import (
	"go.uber.org/zap"

	"github.com/ixfflogin/server/internal/config"
	"github.com/ixfflogin/server/internal/connlimit"
	"github.com/ixfflogin/server/internal/session"
	"github.com/ixfflogin/server/internal/store"
	"github.com/ixfflogin/server/internal/worldreg"
)

// Deps holds shared dependencies injected into every connection handler.
type Deps struct {
	Accounts   *store.AccountRepo
	Contents   *store.ContentRepo
	Characters *store.CharacterRepo
	Sessions   *session.Registry
	Worlds     *worldreg.Registry
	Limiter    *connlimit.Limiter
	Config     *config.LoginConfig
	Log        *zap.Logger
}

// Package worldreg loads the world table once at startup and keeps one
// live broker connection per active world (spec §4.3). Parallel bring-up
// is grounded on golang.org/x/sync/errgroup, promoted here from the
// teacher's indirect-only dependency to one this package actually
// exercises.
package worldreg

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ixfflogin/server/internal/broker"
	"github.com/ixfflogin/server/internal/store"
)

// World is one active world's static metadata plus its live broker
// connection.
type World struct {
	ID          uint32
	Name        string
	IsTest      bool
	conn        *broker.Connection
}

func (w *World) Send(body []byte) error { return w.conn.Send(body) }

func (w *World) RegisterHandler(h broker.Handler) { w.conn.RegisterHandler(h) }

// Registry is the in-memory world catalogue. Built once at startup and
// read-only afterward, so lookups need no lock beyond the map's own
// construction-time write.
type Registry struct {
	mu       sync.RWMutex
	byID     map[uint32]*World
	idByName map[string]uint32
	order    []uint32 // world_id insertion order, for stable list packets

	adminPacket []byte // all worlds, including test worlds
	userPacket  []byte // test worlds excluded
}

// Load reads every active world row, dials a broker connection for each
// in parallel, and returns a Registry containing the ones that
// succeeded. A row that fails to connect is skipped and logged, not
// fatal — but zero surviving worlds is fatal (spec §4.3).
func Load(ctx context.Context, rows []store.WorldRow, log *zap.Logger) (*Registry, error) {
	reg := &Registry{
		byID:     make(map[uint32]*World),
		idByName: make(map[string]uint32),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, row := range rows {
		row := row
		g.Go(func() error {
			opts := broker.Options{
				WorldID:  row.WorldID,
				URL:      brokerURL(row),
				VHost:    row.MQVHost,
				Exchange: row.MQExchange,
				RouteKey: row.MQRouteKey,
			}
			conn, err := broker.Connect(gctx, opts, log)
			if err != nil {
				log.Warn("world broker connect failed, skipping world",
					zap.Uint32("world_id", row.WorldID), zap.String("world", row.DisplayName), zap.Error(err))
				return nil
			}
			w := &World{ID: row.WorldID, Name: row.DisplayName, IsTest: row.IsTest, conn: conn}

			mu.Lock()
			reg.byID[w.ID] = w
			reg.idByName[w.Name] = w.ID
			reg.order = append(reg.order, w.ID)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(reg.byID) == 0 {
		return nil, fmt.Errorf("worldreg: no world brokers came up")
	}
	reg.adminPacket = buildWorldsPacket(reg.List(false))
	reg.userPacket = buildWorldsPacket(reg.List(true))
	return reg, nil
}

// buildWorldsPacket encodes the cached worlds list: a 4-byte header
// (WorldListHeaderByte followed by 3 zero pad bytes) then {id: u32,
// name[16]} per world (spec §4.3).
func buildWorldsPacket(worlds []*World) []byte {
	buf := make([]byte, 4, 4+len(worlds)*20)
	buf[0] = 0x20
	for _, w := range worlds {
		var idBytes [4]byte
		idBytes[0] = byte(w.ID)
		idBytes[1] = byte(w.ID >> 8)
		idBytes[2] = byte(w.ID >> 16)
		idBytes[3] = byte(w.ID >> 24)
		buf = append(buf, idBytes[:]...)
		name := make([]byte, 16)
		copy(name, w.Name)
		buf = append(buf, name...)
	}
	return buf
}

// AdminWorldsPacket returns the cached world-list payload including test
// worlds.
func (r *Registry) AdminWorldsPacket() []byte { return r.adminPacket }

// UserWorldsPacket returns the cached world-list payload excluding test
// worlds.
func (r *Registry) UserWorldsPacket() []byte { return r.userPacket }

func brokerURL(row store.WorldRow) string {
	scheme := "amqp"
	if row.MQSSL {
		scheme = "amqps"
	}
	return fmt.Sprintf("%s://%s:%s@%s:%d/", scheme, row.MQUsername, row.MQPassword, row.MQServer, row.MQPort)
}

// Run drives every world's broker consume loop until ctx is cancelled.
func (r *Registry) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	r.mu.RLock()
	worlds := make([]*World, 0, len(r.byID))
	for _, w := range r.byID {
		worlds = append(worlds, w)
	}
	r.mu.RUnlock()

	for _, w := range worlds {
		w := w
		g.Go(func() error { return w.conn.Run(gctx) })
	}
	return g.Wait()
}

func (r *Registry) Close() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.byID {
		w.conn.Close()
	}
}

func (r *Registry) ByID(worldID uint32) (*World, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.byID[worldID]
	return w, ok
}

func (r *Registry) IDByName(name string) (uint32, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.idByName[name]
	return id, ok
}

func (r *Registry) IsTest(worldID uint32) bool {
	w, ok := r.ByID(worldID)
	return ok && w.IsTest
}

// List returns every world in registration order, for building the
// world-list packet (spec §4.7); excludeTest skips worlds marked
// is_test for clients without test access.
func (r *Registry) List(excludeTest bool) []*World {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*World, 0, len(r.order))
	for _, id := range r.order {
		w := r.byID[id]
		if excludeTest && w.IsTest {
			continue
		}
		out = append(out, w)
	}
	return out
}

package room

import (
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/auxroom/syncd/internal/utils"
)

// Registry maps room identifiers to rooms. Rooms are created on first
// reference and destroyed when their last member departs. The registry
// mutex is held only for lookup, creation and cleanup; it is never held
// while a room handler runs.
type Registry struct {
	mu     sync.Mutex
	rooms  map[string]*Room
	clock  Clock
	logger *utils.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(clock Clock, logger *utils.Logger) *Registry {
	return &Registry{
		rooms:  make(map[string]*Room),
		clock:  clock,
		logger: logger.Named("registry"),
	}
}

// GetOrCreate returns the room with the given id, creating it if absent.
// New rooms start idle with an empty queue.
func (g *Registry) GetOrCreate(id string) *Room {
	g.mu.Lock()
	defer g.mu.Unlock()

	if r, ok := g.rooms[id]; ok {
		return r
	}

	r := newRoom(id, g.clock, g.logger.Named("room"))
	g.rooms[id] = r
	g.logger.Info("Room created", "roomId", id)
	return r
}

// Get returns the room with the given id, or nil.
func (g *Registry) Get(id string) *Room {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.rooms[id]
}

// DropIfEmpty removes the room from the registry if it has no members.
// Returns true when the room was destroyed. The room is marked closed under
// the registry mutex, so a join racing the cleanup is refused and retries
// against a fresh room instead of resurrecting the old one.
func (g *Registry) DropIfEmpty(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	r, ok := g.rooms[id]
	if !ok {
		return false
	}
	if !r.closeIfEmpty() {
		return false
	}

	delete(g.rooms, id)
	g.logger.Info("Room destroyed", "roomId", id)
	return true
}

// Count returns the number of active rooms.
func (g *Registry) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return len(g.rooms)
}

// RoomIDs returns the active room identifiers in sorted order.
func (g *Registry) RoomIDs() []string {
	g.mu.Lock()
	ids := lo.Keys(g.rooms)
	g.mu.Unlock()

	sort.Strings(ids)
	return ids
}

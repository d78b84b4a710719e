package runtime

import (
	"sync"

	"finchat/contract"

	"github.com/google/uuid"
)

type set map[string]struct{}

// Registry tracks which connected participant listens to which room, and
// resolves a room to the push sinks of its current members. It is the
// in-process end of the realtime channel: the bot reply consumer and the
// chat service both notify rooms through it.
type Registry struct {
	mu          sync.RWMutex
	sessions    map[string]contract.EventSink // participant -> sink
	roomMembers map[uuid.UUID]set             // room -> participants
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:    make(map[string]contract.EventSink),
		roomMembers: make(map[uuid.UUID]set),
	}
}

// GetSinksForRoom resolves the active sinks of a room in two steps:
// member ids via roomMembers, then their sinks via sessions. Keeping the
// connection in a single sessions map means a participant in several
// rooms still has exactly one sink. Returns nil for unknown or empty
// rooms.
func (r *Registry) GetSinksForRoom(roomID uuid.UUID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.roomMembers[roomID]
	if !ok {
		return nil
	}
	var activeSinks []contract.EventSink
	for participantID := range members {
		if sink, exists := r.sessions[participantID]; exists {
			activeSinks = append(activeSinks, sink)
		}
	}
	return activeSinks
}

// Subscribe registers a participant's connection and assigns it to a room,
// initializing the room entry on the fly.
func (r *Registry) Subscribe(participantID string, roomID uuid.UUID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[participantID] = sink

	if _, ok := r.roomMembers[roomID]; !ok {
		r.roomMembers[roomID] = make(set)
	}
	r.roomMembers[roomID][participantID] = struct{}{}
}

// Unsubscribe removes a participant and cleans up empty room entries so
// the map does not grow forever.
func (r *Registry) Unsubscribe(participantID string, roomID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, participantID)

	if members, ok := r.roomMembers[roomID]; ok {
		delete(members, participantID)
		if len(members) == 0 {
			delete(r.roomMembers, roomID)
		}
	}
}

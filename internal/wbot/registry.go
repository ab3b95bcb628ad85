package wbot

import (
	"context"
	"strconv"

	cmap "github.com/orcaman/concurrent-map/v2"
)

// Registry is the authoritative set of live sessions, keyed by tenant
// connection id. It enforces the core invariant: at most one live
// session per id. Per-tenant controllers call it concurrently.
type Registry struct {
	sessions cmap.ConcurrentMap[string, *Session]
}

func NewRegistry() *Registry {
	return &Registry{sessions: cmap.New[*Session]()}
}

func key(id int) string { return strconv.Itoa(id) }

// Get returns the live session for a connection id, if any.
func (r *Registry) Get(id int) (*Session, bool) {
	return r.sessions.Get(key(id))
}

// Put inserts or replaces the session for its id. A replaced live
// session is closed as part of the same operation so it is never left
// dangling.
func (r *Registry) Put(s *Session) {
	r.sessions.Upsert(key(s.ID), s, func(exists bool, old, incoming *Session) *Session {
		if exists && old != incoming {
			old.Shutdown(context.Background(), false)
		}
		return incoming
	})
}

// Remove takes the session for id out of the registry and closes its
// transport. With logout it performs a graceful protocol logout first.
// Removing an absent id is a no-op.
func (r *Registry) Remove(id int, logout bool) {
	if s, ok := r.sessions.Pop(key(id)); ok {
		s.Shutdown(context.Background(), logout)
	}
}

// IDs returns a snapshot of the connection ids with a live session.
func (r *Registry) IDs() []int {
	keys := r.sessions.Keys()
	ids := make([]int, 0, len(keys))
	for _, k := range keys {
		id, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	return r.sessions.Count()
}

package chat

import "sync"

// Registry maps a user to the set of channels currently open for them.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]map[string]Channel // user -> channel id -> channel
}

func NewRegistry() *Registry {
	return &Registry{byUser: make(map[string]map[string]Channel)}
}

func (r *Registry) Register(userID string, ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.byUser[userID]
	if m == nil {
		m = make(map[string]Channel)
		r.byUser[userID] = m
	}
	m[ch.ID()] = ch
}

// Unregister removes ch and prunes the user's entry once it is empty.
func (r *Registry) Unregister(userID string, ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.byUser[userID]
	if m == nil {
		return
	}
	delete(m, ch.ID())
	if len(m) == 0 {
		delete(r.byUser, userID)
	}
}

// ChannelsFor returns a snapshot; callers may iterate it while channels come and go.
func (r *Registry) ChannelsFor(userID string) []Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.byUser[userID]
	if len(m) == 0 {
		return nil
	}
	out := make([]Channel, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	return out
}

// Stats returns the number of users and channels registered.
func (r *Registry) Stats() (users, channels int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.byUser {
		channels += len(m)
	}
	return len(r.byUser), channels
}

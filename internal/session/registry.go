// Package session tracks live client connections and fans server frames out
// to them. Each client gets a buffered outbound queue drained by its write
// pump; a client that stops draining gets evicted rather than stalling the
// rest of the room.
package session

import (
	"log/slog"
	"sync"

	"github.com/plaza-world/plaza/internal/model"
)

// SendBuffer is the outbound queue depth per client. A full queue marks the
// client as a slow consumer and triggers eviction.
const SendBuffer = 256

// Client is one live connection's registry entry
type Client struct {
	ID   model.ClientID
	IP   string
	send chan []byte
}

// Send exposes the outbound queue to the connection's write pump
func (c *Client) Send() <-chan []byte {
	return c.send
}

// EvictFunc is called, outside of registry locks, when a client must be
// dropped for not draining its queue
type EvictFunc func(id model.ClientID)

// Registry is the set of live connections
type Registry struct {
	logger  *slog.Logger
	onEvict EvictFunc

	mu      sync.RWMutex
	clients map[model.ClientID]*Client
}

// New creates an empty registry. onEvict may be nil.
func New(logger *slog.Logger, onEvict EvictFunc) *Registry {
	return &Registry{
		logger:  logger.With(slog.String("component", "session")),
		onEvict: onEvict,
		clients: make(map[model.ClientID]*Client),
	}
}

// SetEvictFunc installs the eviction callback after construction. The
// registry and the component that owns disconnection depend on each other,
// so one of them has to be wired late.
func (r *Registry) SetEvictFunc(onEvict EvictFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onEvict = onEvict
}

// Register adds a live connection under a client ID
func (r *Registry) Register(id model.ClientID, ip string) (*Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.clients[id]; exists {
		return nil, model.ErrIdentityCollision
	}

	client := &Client{
		ID:   id,
		IP:   ip,
		send: make(chan []byte, SendBuffer),
	}
	r.clients[id] = client
	return client, nil
}

// Unregister removes a connection and closes its outbound queue. Returns
// false if the client was already gone, making repeated calls safe.
func (r *Registry) Unregister(id model.ClientID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.clients[id]
	if !ok {
		return false
	}
	delete(r.clients, id)
	close(client.send)
	return true
}

// Get returns the registry entry for a client
func (r *Registry) Get(id model.ClientID) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[id]
	return client, ok
}

// Count returns the number of live connections
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// IDs returns the IDs of all live connections
func (r *Registry) IDs() []model.ClientID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.ClientID, 0, len(r.clients))
	for id := range r.clients {
		out = append(out, id)
	}
	return out
}

// FindByIP returns the client connected from the given remote IP
func (r *Registry) FindByIP(ip string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, client := range r.clients {
		if client.IP == ip {
			return client, true
		}
	}
	return nil, false
}

// SendTo queues a frame for one client
func (r *Registry) SendTo(id model.ClientID, data []byte) error {
	r.mu.RLock()
	client, ok := r.clients[id]
	r.mu.RUnlock()
	if !ok {
		return model.ErrNotConnected
	}

	if !r.enqueue(client, data) {
		r.evict(client)
	}
	return nil
}

// Broadcast queues a frame for every client except the excluded IDs
func (r *Registry) Broadcast(data []byte, exclude ...model.ClientID) {
	skip := make(map[model.ClientID]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}

	r.mu.RLock()
	targets := make([]*Client, 0, len(r.clients))
	for id, client := range r.clients {
		if _, excluded := skip[id]; excluded {
			continue
		}
		targets = append(targets, client)
	}
	r.mu.RUnlock()

	var slow []*Client
	for _, client := range targets {
		if !r.enqueue(client, data) {
			slow = append(slow, client)
		}
	}
	for _, client := range slow {
		r.evict(client)
	}
}

// enqueue attempts a non-blocking send on the client's queue. It re-checks
// membership under the read lock so the send can never race an Unregister
// closing the channel.
func (r *Registry) enqueue(client *Client, data []byte) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, live := r.clients[client.ID]; !live {
		return true // already gone, nothing to deliver
	}
	select {
	case client.send <- data:
		return true
	default:
		return false
	}
}

func (r *Registry) evict(client *Client) {
	r.logger.Warn("evicting slow consumer",
		slog.Uint64("client_id", uint64(client.ID)),
		slog.String("ip", client.IP))

	r.mu.RLock()
	onEvict := r.onEvict
	r.mu.RUnlock()

	if onEvict != nil {
		onEvict(client.ID)
	} else {
		r.Unregister(client.ID)
	}
}

package server

import (
	"sync"
	"time"

	"github.com/coder/websocket"
)

// clientSession is what the registry knows about one connection
type clientSession struct {
	host        string
	connectedAt time.Time
	jobs        int
}

// ClientRegistry tracks connected WebSocket clients and their submitted jobs
type ClientRegistry struct {
	clients map[*websocket.Conn]*clientSession
	mu      sync.RWMutex
}

// NewClientRegistry creates a new client registry
func NewClientRegistry() *ClientRegistry {
	return &ClientRegistry{
		clients: make(map[*websocket.Conn]*clientSession),
	}
}

// Add registers a connection opened from host
func (r *ClientRegistry) Add(conn *websocket.Conn, host string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[conn] = &clientSession{host: host, connectedAt: time.Now()}
}

// Remove unregisters a connection and returns how long it stayed and how
// many jobs it queued.
func (r *ClientRegistry) Remove(conn *websocket.Conn) (time.Duration, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.clients[conn]
	if !ok {
		return 0, 0
	}
	delete(r.clients, conn)
	return time.Since(s.connectedAt), s.jobs
}

// RecordJob counts a job queued by conn
func (r *ClientRegistry) RecordJob(conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.clients[conn]; ok {
		s.jobs++
	}
}

// Count returns the number of connected clients
func (r *ClientRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Hosts returns the distinct remote hosts currently connected
func (r *ClientRegistry) Hosts() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool, len(r.clients))
	hosts := make([]string, 0, len(r.clients))
	for _, s := range r.clients {
		if !seen[s.host] {
			seen[s.host] = true
			hosts = append(hosts, s.host)
		}
	}
	return hosts
}

// ForEach executes a function for each connected client
func (r *ClientRegistry) ForEach(fn func(*websocket.Conn)) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for conn := range r.clients {
		fn(conn)
	}
}

package realtime

import "sync"

// Manager tracks which connections are in which task rooms. It is the
// single owner of the presence map; every read and write happens under
// its lock, scoped to one server process. Presence is advisory: it is
// rebuilt empty on restart and clients re-join explicitly.
type Manager struct {
	mu    sync.Mutex
	rooms map[string]*room
}

// NewManager creates an empty presence manager.
func NewManager() *Manager {
	return &Manager{rooms: make(map[string]*room)}
}

// Join adds the connection to the task's room. Joining a room the
// connection is already in is a no-op. When this is the first
// connection of the client's user in the room, the other members are
// notified with user-online; the acting user is never notified of its
// own join.
func (m *Manager) Join(taskID string, c *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := m.rooms[taskID]
	if r == nil {
		r = newRoom(taskID)
		m.rooms[taskID] = r
	}
	if _, ok := r.members[c]; ok {
		return
	}

	newlyOnline := !r.hasUser(c.user.ID)
	r.members[c] = struct{}{}
	if newlyOnline {
		r.broadcastExceptUser(Outbound{
			Type:   EventUserOnline,
			TaskID: taskID,
			UserID: c.user.ID,
		}, c.user.ID)
	}
}

// Leave removes the connection from the task's room. Leaving a room the
// connection is not in is a no-op. When the last connection of the
// user leaves, the remaining members are notified with user-offline.
func (m *Manager) Leave(taskID string, c *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaveLocked(taskID, c)
}

func (m *Manager) leaveLocked(taskID string, c *Client) {
	r := m.rooms[taskID]
	if r == nil {
		return
	}
	if _, ok := r.members[c]; !ok {
		return
	}
	delete(r.members, c)

	if len(r.members) == 0 {
		delete(m.rooms, taskID)
		return
	}
	if !r.hasUser(c.user.ID) {
		r.broadcastExceptUser(Outbound{
			Type:   EventUserOffline,
			TaskID: taskID,
			UserID: c.user.ID,
		}, c.user.ID)
	}
}

// Drop removes the connection from every room it is a member of,
// emitting leave notifications to each affected room. Called on
// connection-level disconnect, explicit or from a missed ping.
func (m *Manager) Drop(c *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for taskID := range m.rooms {
		m.leaveLocked(taskID, c)
	}
}

// InRoom reports whether the connection is currently in the task's room.
func (m *Manager) InRoom(taskID string, c *Client) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.rooms[taskID]
	if r == nil {
		return false
	}
	_, ok := r.members[c]
	return ok
}

// Users returns the distinct user ids currently present in the task's
// room. The returned slice is a copy.
func (m *Manager) Users(taskID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.rooms[taskID]
	if r == nil {
		return nil
	}
	return r.users()
}

// Broadcast queues an event for every member of the task's room,
// optionally skipping the originating connection.
func (m *Manager) Broadcast(taskID string, event Outbound, except *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.rooms[taskID]
	if r == nil {
		return
	}
	r.broadcast(event, except)
}

// BroadcastExceptUser queues an event for every member of the task's
// room not belonging to the given user.
func (m *Manager) BroadcastExceptUser(taskID string, event Outbound, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.rooms[taskID]
	if r == nil {
		return
	}
	r.broadcastExceptUser(event, userID)
}

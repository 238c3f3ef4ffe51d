package realtime

// room is the set of connections currently subscribed to one task. All
// mutation goes through the Manager, which holds the lock; the raw
// member set is never handed to callers.
type room struct {
	taskID  string
	members map[*Client]struct{}
}

func newRoom(taskID string) *room {
	return &room{taskID: taskID, members: make(map[*Client]struct{})}
}

// broadcast queues an event on every member connection, optionally
// skipping one (the acting connection). Delivery is best effort: a
// member whose send queue is full is dropped rather than allowed to
// stall the room.
func (r *room) broadcast(event Outbound, except *Client) {
	for c := range r.members {
		if c == except {
			continue
		}
		c.enqueue(event)
	}
}

// broadcastExceptUser queues an event on every member connection not
// belonging to the given user. Used for presence and typing signals,
// which a principal never receives about itself.
func (r *room) broadcastExceptUser(event Outbound, userID string) {
	for c := range r.members {
		if c.user.ID == userID {
			continue
		}
		c.enqueue(event)
	}
}

// hasUser reports whether any member connection belongs to the user.
func (r *room) hasUser(userID string) bool {
	for c := range r.members {
		if c.user.ID == userID {
			return true
		}
	}
	return false
}

// users returns the distinct user ids present in the room.
func (r *room) users() []string {
	seen := make(map[string]struct{}, len(r.members))
	var ids []string
	for c := range r.members {
		if _, ok := seen[c.user.ID]; ok {
			continue
		}
		seen[c.user.ID] = struct{}{}
		ids = append(ids, c.user.ID)
	}
	return ids
}

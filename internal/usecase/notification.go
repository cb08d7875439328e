package usecase

import (
	"sync"
	"time"
)

const (
	DefaultNotificationCapacity = 100
	DefaultNotificationTTL      = 5 * time.Minute
)

type NotificationLevel string

const (
	NotificationInfo  NotificationLevel = "info"
	NotificationError NotificationLevel = "error"
)

// Notification is a short-lived message about a settled background job.
type Notification struct {
	ID        uint64            `json:"id"`
	Level     NotificationLevel `json:"level"`
	Message   string            `json:"message"`
	TeamKey   string            `json:"team_key,omitempty"`
	Resource  string            `json:"resource,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// NotificationFeed keeps the most recent notifications in a ring and drops
// them once they are older than the TTL.
type NotificationFeed struct {
	mu    sync.Mutex
	items []Notification
	next  int
	full  bool
	seq   uint64
	ttl   time.Duration
	now   func() time.Time
}

func NewNotificationFeed(capacity int, ttl time.Duration) *NotificationFeed {
	if capacity <= 0 {
		capacity = DefaultNotificationCapacity
	}
	if ttl <= 0 {
		ttl = DefaultNotificationTTL
	}
	return &NotificationFeed{
		items: make([]Notification, capacity),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (f *NotificationFeed) Push(n Notification) Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	n.ID = f.seq
	if n.Level == "" {
		n.Level = NotificationInfo
	}
	n.CreatedAt = f.now().UTC()

	f.items[f.next] = n
	f.next = (f.next + 1) % len(f.items)
	if f.next == 0 {
		f.full = true
	}
	return n
}

// List returns up to limit live notifications, newest first.
func (f *NotificationFeed) List(limit int) []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	size := f.next
	if f.full {
		size = len(f.items)
	}
	if limit <= 0 || limit > size {
		limit = size
	}

	cutoff := f.now().UTC().Add(-f.ttl)
	out := make([]Notification, 0, limit)
	for i := 1; i <= size && len(out) < limit; i++ {
		n := f.items[(f.next-i+len(f.items))%len(f.items)]
		if n.CreatedAt.Before(cutoff) {
			break
		}
		out = append(out, n)
	}
	return out
}

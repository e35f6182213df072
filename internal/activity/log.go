package activity

import (
	"fmt"
	"sync"
	"time"
)

// maxEntries bounds the in-memory log; older entries are discarded.
const maxEntries = 1000

// subscriberBuffer is the per-subscriber channel depth. A subscriber that
// falls this far behind starts losing entries rather than blocking the
// pipeline.
const subscriberBuffer = 64

// Entry is one timestamped, human-readable activity event.
type Entry struct {
	Time    time.Time `json:"time"`
	Source  string    `json:"source,omitempty"`
	Message string    `json:"message"`
}

// String formats the entry the way it is shown in the live feed.
func (e Entry) String() string {
	prefix := ""
	if e.Source != "" {
		prefix = "[" + e.Source + "] "
	}
	return fmt.Sprintf("[%s] - %s%s [%s]",
		e.Time.Format("15:04:05"), prefix, e.Message, e.Time.Format("02.01.2006"))
}

// Log is an append-only, time-ordered activity log with live subscriptions.
// It is safe for concurrent use.
type Log struct {
	mu          sync.Mutex
	entries     []Entry
	subscribers map[chan Entry]struct{}
}

// NewLog creates an empty activity log.
func NewLog() *Log {
	return &Log{
		subscribers: make(map[chan Entry]struct{}),
	}
}

// Append records an event and fans it out to all subscribers without
// blocking on any of them.
func (l *Log) Append(source, message string) {
	entry := Entry{Time: time.Now(), Source: source, Message: message}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entry)
	if len(l.entries) > maxEntries {
		l.entries = l.entries[len(l.entries)-maxEntries:]
	}

	for ch := range l.subscribers {
		select {
		case ch <- entry:
		default:
			// subscriber too slow, drop the entry for it
		}
	}
}

// Recent returns the last n entries, oldest-first. n <= 0 returns all
// retained entries.
func (l *Log) Recent(n int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]Entry, n)
	copy(out, l.entries[len(l.entries)-n:])
	return out
}

// Subscribe registers a live feed. The caller must Unsubscribe when done.
func (l *Log) Subscribe() chan Entry {
	ch := make(chan Entry, subscriberBuffer)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a live feed and closes its channel.
func (l *Log) Unsubscribe(ch chan Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.subscribers[ch]; ok {
		delete(l.subscribers, ch)
		close(ch)
	}
}

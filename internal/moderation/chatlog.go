package moderation

import (
	"sync"
	"time"
)

// ChatLogEntry is one audited chat message
type ChatLogEntry struct {
	Sender    string    `json:"sender"`
	IP        string    `json:"ip"`
	Text      string    `json:"text"`
	Flagged   bool      `json:"flagged"`
	Timestamp time.Time `json:"timestamp"`
}

// chatLog is a bounded ring of recent chat messages kept for admin review
type chatLog struct {
	mu      sync.Mutex
	entries []ChatLogEntry
	next    int
	full    bool
}

func newChatLog(size int) *chatLog {
	return &chatLog{
		entries: make([]ChatLogEntry, size),
	}
}

func (l *chatLog) record(entry ChatLogEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[l.next] = entry
	l.next = (l.next + 1) % len(l.entries)
	if l.next == 0 {
		l.full = true
	}
}

// recent returns the buffered entries, newest first
func (l *chatLog) recent() []ChatLogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	count := l.next
	if l.full {
		count = len(l.entries)
	}

	out := make([]ChatLogEntry, 0, count)
	for i := 1; i <= count; i++ {
		idx := (l.next - i + len(l.entries)) % len(l.entries)
		out = append(out, l.entries[idx])
	}
	return out
}

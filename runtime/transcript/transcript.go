// Package transcript accumulates the role-tagged text of a live session.
package transcript

import (
	"strings"
	"sync"
)

// Role identifies who spoke.
type Role string

// Roles.
const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Label returns the speaker name used when formatting a transcript.
func (r Role) Label() string {
	switch r {
	case RoleUser:
		return "User"
	case RoleModel:
		return "Coach"
	default:
		return string(r)
	}
}

// Entry is one contiguous run of speech from a single role.
type Entry struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Accumulator merges transcription deltas into entries. Consecutive deltas
// from the same role extend the last entry; a role switch starts a new one.
// All methods are safe for concurrent use.
type Accumulator struct {
	mu      sync.Mutex
	entries []Entry
}

// New returns an empty accumulator.
func New() *Accumulator {
	return &Accumulator{}
}

// Append adds delta for role. Empty deltas are ignored.
func (a *Accumulator) Append(role Role, delta string) {
	if delta == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if n := len(a.entries); n > 0 && a.entries[n-1].Role == role {
		a.entries[n-1].Text += delta
		return
	}
	a.entries = append(a.entries, Entry{Role: role, Text: delta})
}

// Reset discards every entry.
func (a *Accumulator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = nil
}

// Snapshot returns a copy of the entries.
func (a *Accumulator) Snapshot() []Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Entry, len(a.entries))
	copy(out, a.entries)
	return out
}

// Len returns the number of entries.
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

// Format renders entries one per line as "Label: text".
func Format(entries []Entry) string {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(e.Role.Label())
		b.WriteString(": ")
		b.WriteString(strings.TrimSpace(e.Text))
	}
	return b.String()
}

// Format renders the current entries.
func (a *Accumulator) Format() string {
	return Format(a.Snapshot())
}

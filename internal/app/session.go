package app

import "time"

// Session identifies one CLI invocation in the log.
type Session struct {
	ID        string
	Command   string
	StartedAt time.Time
}

// NewSession creates a session for command starting at now.
func NewSession(command string, now time.Time) *Session {
	now = now.UTC()
	return &Session{
		ID:        now.Format("20060102T150405Z"),
		Command:   command,
		StartedAt: now,
	}
}

// Elapsed returns the time since the session started.
func (s *Session) Elapsed(now time.Time) time.Duration {
	return now.Sub(s.StartedAt)
}

package jwt

import "time"

// SetClock replaces the time source of m.
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

package vendors

import (
	"sync"
	"time"
)

// Session holds the cached bearer token for one vendor. It is created
// lazily by the first login and shared by every request in the process;
// a 401 on any authenticated call clears it so the next call logs in
// again.
type Session struct {
	mu         sync.Mutex
	token      string
	obtainedAt time.Time
}

// Token returns the cached token, or "" when no login has happened yet.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Set stores a freshly obtained token.
func (s *Session) Set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.obtainedAt = time.Now()
}

// Clear invalidates the cached token.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.obtainedAt = time.Time{}
}

// Age returns how long ago the token was obtained, or zero when unset.
func (s *Session) Age() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return 0
	}
	return time.Since(s.obtainedAt)
}

package bot

import (
	"context"
	"sync"
	"time"
)

type Stage string

const (
	StageIdle                   Stage = "idle"
	StageAwaitingText           Stage = "awaiting_text"
	StageAwaitingClassification Stage = "awaiting_classification"
)

// UserSession tracks one user's progress through the feedback flow.
// Handlers must hold the embedded mutex for the whole event, so concurrent
// events from the same user cannot interleave a half-finished transition.
type UserSession struct {
	sync.Mutex

	UserID      int64
	Stage       Stage
	PendingText string
	UpdatedAt   time.Time
}

// Reset returns the session to idle and drops any captured text.
func (s *UserSession) Reset(now time.Time) {
	s.Stage = StageIdle
	s.PendingText = ""
	s.UpdatedAt = now
}

// SessionStore owns all user sessions. Sessions are created lazily and
// expire after ttl without activity: expiry is applied lazily by Acquire,
// under the session lock, and stale entries are removed by the background
// sweeper.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[int64]*UserSession
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[int64]*UserSession),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns the session for userID, creating it if needed. It never
// mutates an existing session: the caller does not hold the session lock,
// so TTL expiry is applied by Acquire instead.
func (s *SessionStore) Get(userID int64) *UserSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		sess = &UserSession{UserID: userID, Stage: StageIdle, UpdatedAt: s.now()}
		s.sessions[userID] = sess
	}
	return sess
}

// Acquire returns the user's session with its mutex held, after applying
// lazy TTL expiry. The caller must Unlock when the event is fully handled;
// that lock is what serializes events from the same user.
func (s *SessionStore) Acquire(userID int64) *UserSession {
	for {
		sess := s.Get(userID)
		sess.Lock()

		// The sweeper may have dropped this session between Get and Lock;
		// if the map now holds a different object, start over so two
		// handlers never run on diverging copies of one user's state.
		s.mu.RLock()
		current := s.sessions[userID]
		s.mu.RUnlock()
		if current != sess {
			sess.Unlock()
			continue
		}

		now := s.now()
		if s.ttl > 0 && now.Sub(sess.UpdatedAt) > s.ttl {
			sess.Stage = StageIdle
			sess.PendingText = ""
			sess.UpdatedAt = now
		}
		return sess
	}
}

// Sweep drops sessions that are idle or past the TTL and reports how many
// were removed. Sessions whose lock is held by a running handler are left
// alone and picked up on a later pass.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for userID, sess := range s.sessions {
		if !sess.TryLock() {
			continue
		}
		if sess.Stage == StageIdle || (s.ttl > 0 && now.Sub(sess.UpdatedAt) > s.ttl) {
			delete(s.sessions, userID)
			removed++
		}
		sess.Unlock()
	}
	return removed
}

// RunSweeper sweeps on the given interval until ctx is cancelled.
func (s *SessionStore) RunSweeper(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Len reports the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

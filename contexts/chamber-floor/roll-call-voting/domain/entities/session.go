package entities

import "time"

type SessionState string

const (
	SessionStatePrepared SessionState = "prepared"
	SessionStateStarted  SessionState = "started"
	SessionStatePaused   SessionState = "paused"
	SessionStateClosed   SessionState = "closed"
)

func (s SessionState) Valid() bool {
	switch s {
	case SessionStatePrepared, SessionStateStarted, SessionStatePaused, SessionStateClosed:
		return true
	default:
		return false
	}
}

// Session is one sitting of the chamber. Started and Paused are the "active"
// states; at most one session may hold them at a time.
type Session struct {
	SessionID       string
	Code            string
	State           SessionState
	QuorumThreshold int
	StartedAt       *time.Time
	PausedAt        *time.Time
	PauseExpiresAt  *time.Time
	ClosedAt        *time.Time
	StartedBy       string
	ClosedBy        string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Active reports whether the stored state occupies the chamber.
func (s Session) Active() bool {
	return s.State == SessionStateStarted || s.State == SessionStatePaused
}

// PauseExpired reports whether a timed pause has run out at now.
func (s Session) PauseExpired(now time.Time) bool {
	if s.State != SessionStatePaused || s.PauseExpiresAt == nil {
		return false
	}
	return !now.UTC().Before(s.PauseExpiresAt.UTC())
}

// EffectiveState folds an expired pause back into started. Pause expiry has
// no timer behind it; it is evaluated whenever the session is read.
func (s Session) EffectiveState(now time.Time) SessionState {
	if s.PauseExpired(now) {
		return SessionStateStarted
	}
	return s.State
}

// Resume moves the session back to started and clears pause bookkeeping.
func (s *Session) Resume(now time.Time) {
	s.State = SessionStateStarted
	s.PausedAt = nil
	s.PauseExpiresAt = nil
	s.UpdatedAt = now.UTC()
}

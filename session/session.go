package session

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// DemoToken is the sentinel token handed out by the backend's demo login.
const DemoToken = "demo_session_token"

var (
	demoTiers = map[string]bool{"": true, "demo": true, "free": true, "visitor": true, "expired": true, "inactive": true, "trial": true}
	paidTiers = map[string]bool{"active": true, "enterprise": true, "pro": true, "basic": true}
)

type Session struct {
	Token        string `json:"token"`
	Role         string `json:"role"`
	Name         string `json:"name"`
	Subscription string `json:"subscription"`
}

func (s Session) tier() string { return strings.ToLower(strings.TrimSpace(s.Subscription)) }

// IsDemo reports whether the session must be served by demo mocks instead of the backend.
func (s Session) IsDemo() bool {
	if s.Token == DemoToken {
		return true
	}
	return demoTiers[s.tier()]
}

func (s Session) IsPaid() bool { return paidTiers[s.tier()] }

func (s Session) Authenticated() bool { return s.Token != "" }

// Resetter clears session-scoped state on logout; the quota gate satisfies it.
type Resetter interface {
	Reset(ctx context.Context) error
}

// Store is the process-wide authentication state.
type Store struct {
	mu  sync.RWMutex
	cur Session

	onLogout []Resetter
	log      *logrus.Entry
}

func NewStore(s Session, log *logrus.Entry, onLogout ...Resetter) *Store {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Store{cur: s, onLogout: onLogout, log: log.WithField("component", "session")}
}

func (st *Store) Get() Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.cur
}

func (st *Store) Save(s Session) {
	st.mu.Lock()
	st.cur = s
	st.mu.Unlock()
}

func (st *Store) Token() string { return st.Get().Token }

// Logout forgets the session and clears every demo quota count.
func (st *Store) Logout(ctx context.Context) {
	st.mu.Lock()
	st.cur = Session{}
	st.mu.Unlock()
	for _, r := range st.onLogout {
		if err := r.Reset(ctx); err != nil {
			st.log.WithError(err).Warn("logout: reset failed")
		}
	}
}

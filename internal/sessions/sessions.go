// Package sessions scopes landing page state to one visitor: each session owns
// a landing.Controller and a queue of pending notifications, and is discarded
// once idle for longer than its TTL.
package sessions

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"abbot-web/internal/landing"
	"abbot-web/internal/logging"
)

const (
	// DefaultCookieName is used when Options.CookieName is blank.
	DefaultCookieName = "abbot_session"
	// DefaultTTL is the idle lifetime of a session.
	DefaultTTL = 30 * time.Minute
	// DefaultMaxSessions bounds the number of live sessions.
	DefaultMaxSessions = 10000
)

// ControllerFactory builds the controller for a new session. The notifier
// delivers messages to that session's flash queue.
type ControllerFactory func(notifier landing.Notifier) *landing.Controller

// Options configures a Store.
type Options struct {
	TTL           time.Duration
	CookieName    string
	SecureCookie  bool
	MaxSessions   int
	NewController ControllerFactory
	Logger        logging.Logger
	Now           func() time.Time
}

// Session is one visitor's page session.
type Session struct {
	ID         string
	Controller *landing.Controller

	expiresAt time.Time

	flashMu sync.Mutex
	flashes []string
}

// Notify queues message for display on the visitor's next page render.
func (s *Session) Notify(message string) {
	message = strings.TrimSpace(message)
	if message == "" {
		return
	}
	s.flashMu.Lock()
	defer s.flashMu.Unlock()
	s.flashes = append(s.flashes, message)
}

// TakeFlashes returns and clears the queued messages.
func (s *Session) TakeFlashes() []string {
	s.flashMu.Lock()
	defer s.flashMu.Unlock()
	out := s.flashes
	s.flashes = nil
	return out
}

// Store keeps live sessions in memory.
type Store struct {
	ttl         time.Duration
	cookieName  string
	secure      bool
	maxSessions int
	factory     ControllerFactory
	logger      logging.Logger
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewStore returns an empty Store.
func NewStore(opts Options) *Store {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	name := strings.TrimSpace(opts.CookieName)
	if name == "" {
		name = DefaultCookieName
	}
	max := opts.MaxSessions
	if max <= 0 {
		max = DefaultMaxSessions
	}
	factory := opts.NewController
	if factory == nil {
		factory = func(n landing.Notifier) *landing.Controller {
			return landing.New(landing.Options{Notifier: n, Logger: opts.Logger})
		}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		ttl:         ttl,
		cookieName:  name,
		secure:      opts.SecureCookie,
		maxSessions: max,
		factory:     factory,
		logger:      opts.Logger,
		now:         now,
		sessions:    make(map[string]*Session),
	}
}

// CookieName reports the cookie carrying the session ID.
func (s *Store) CookieName() string {
	return s.cookieName
}

// Load returns the session named by the request cookie, starting a new one
// (and setting the cookie on w) when the cookie is missing, unknown or
// expired. Every call extends the session's lifetime.
func (s *Store) Load(w http.ResponseWriter, r *http.Request) *Session {
	var id string
	if cookie, err := r.Cookie(s.cookieName); err == nil {
		id = strings.TrimSpace(cookie.Value)
	}

	now := s.now()
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok && now.After(sess.expiresAt) {
		delete(s.sessions, id)
		ok = false
	}
	if !ok {
		sess = s.startLocked(now)
	}
	sess.expiresAt = now.Add(s.ttl)
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   int(s.ttl / time.Second),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

// Get returns a live session by ID without extending it.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || s.now().After(sess.expiresAt) {
		return nil, false
	}
	return sess, true
}

// Len reports the number of sessions held, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops expired sessions and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(s.now())
}

// Run sweeps expired sessions every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Sweep(); n > 0 && s.logger != nil {
				s.logger.Printf("dropped %d expired sessions", n)
			}
		}
	}
}

func (s *Store) startLocked(now time.Time) *Session {
	if len(s.sessions) >= s.maxSessions {
		s.sweepLocked(now)
	}
	if len(s.sessions) >= s.maxSessions {
		s.evictOldestLocked()
	}
	sess := &Session{ID: newID()}
	sess.Controller = s.factory(sess)
	s.sessions[sess.ID] = sess
	return sess
}

func (s *Store) sweepLocked(now time.Time) int {
	removed := 0
	for id, sess := range s.sessions {
		if now.After(sess.expiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *Store) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, sess := range s.sessions {
		if oldestID == "" || sess.expiresAt.Before(oldest) {
			oldestID = id
			oldest = sess.expiresAt
		}
	}
	if oldestID != "" {
		delete(s.sessions, oldestID)
	}
}

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Package session keeps the storefront state of each visitor, keyed by an
// opaque cookie value.
package session

import (
	"context"
	"sync"
	"time"

	"catalog-service/internal/catalog"
	"catalog-service/internal/consultation"
	"catalog-service/internal/detail"
	"catalog-service/internal/models"
	"catalog-service/internal/store"
	"catalog-service/internal/viewport"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	CookieName = "catalog_session"

	DefaultTTL = 30 * time.Minute

	// DefaultMaxSessions bounds the sessions kept at once. When full, expired
	// sessions go first, then the least recently seen one.
	DefaultMaxSessions = 10000

	// JanitorSchedule is how often expired sessions are swept.
	JanitorSchedule = "@every 1m"
)

// Session is one visitor's storefront: its catalog, detail modal and
// consultation form over a private product store.
type Session struct {
	ID       string
	Store    *store.ProductStore
	Catalog  *catalog.View
	Detail   *detail.Controller
	Form     *consultation.Form
	Bridge   *consultation.Bridge
	Viewport *viewport.Recorder

	ready chan struct{}

	mu       sync.Mutex
	lastSeen time.Time
}

// Ready is closed once the first catalog load, contacts and settings of the
// session have finished.
func (s *Session) Ready() <-chan struct{} {
	return s.ready
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

type Config struct {
	Gateway     store.Gateway
	Messenger   store.Messenger
	Store       store.Options
	Placeholder string
	TTL         time.Duration
	MaxSessions int
	Logger      *logrus.Logger
}

type Registry struct {
	cfg    Config
	logger *logrus.Entry
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session

	sched *cron.Cron

	// background loads run on ctx and are awaited by Stop
	ctx    context.Context
	cancel context.CancelFunc
	loads  sync.WaitGroup
}

func NewRegistry(cfg Config) *Registry {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	if cfg.Store.Logger == nil {
		cfg.Store.Logger = cfg.Logger
	}
	if cfg.Store.Placeholder == "" {
		cfg.Store.Placeholder = cfg.Placeholder
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		cfg:      cfg,
		logger:   cfg.Logger.WithField("component", "session_registry"),
		now:      time.Now,
		sessions: make(map[string]*Session),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (r *Registry) newSession(id string) *Session {
	rec := viewport.NewRecorder()
	st := store.NewProductStore(r.cfg.Gateway, r.cfg.Messenger, r.cfg.Store)
	form := consultation.NewForm()
	return &Session{
		ID:       id,
		Store:    st,
		Catalog:  catalog.NewView(st, rec, r.cfg.Placeholder, r.cfg.Logger),
		Detail:   detail.NewController(st, rec, r.cfg.Placeholder, r.cfg.Logger),
		Form:     form,
		Bridge:   consultation.NewBridge(form, rec),
		Viewport: rec,
		ready:    make(chan struct{}),
	}
}

// Go runs fn in the background on the registry's context. Stop cancels that
// context and waits for fn to return.
func (r *Registry) Go(fn func(ctx context.Context)) {
	r.loads.Add(1)
	go func() {
		defer r.loads.Done()
		fn(r.ctx)
	}()
}

// warmUp loads the session's catalog, contacts and settings in the
// background. The grid shows the loading placeholder until the products are
// in, unless the visitor picked another tab meanwhile.
func (r *Registry) warmUp(sess *Session) {
	sess.Catalog.BeginCategory(models.CategoryAll)
	r.Go(func(ctx context.Context) {
		defer close(sess.ready)
		sess.Catalog.Show(sess.Store.Init(ctx))
	})
}

// Get returns the live session with the given id, or starts a new one with a
// fresh id. A new session is returned at once while its catalog loads in the
// background.
func (r *Registry) Get(id string) (sess *Session, created bool) {
	now := r.now()
	if id != "" {
		r.mu.RLock()
		sess = r.sessions[id]
		r.mu.RUnlock()
		if sess != nil && now.Sub(sess.LastSeen()) < r.cfg.TTL {
			sess.touch(now)
			return sess, false
		}
	}

	sess = r.newSession(uuid.New().String())
	sess.touch(now)

	r.mu.Lock()
	if len(r.sessions) >= r.cfg.MaxSessions {
		r.makeRoomLocked(now)
	}
	r.sessions[sess.ID] = sess
	r.mu.Unlock()

	r.warmUp(sess)
	r.logger.WithField("sessionId", sess.ID).Debug("Session started")
	return sess, true
}

// makeRoomLocked frees one slot: expired sessions first, else the least
// recently seen one.
func (r *Registry) makeRoomLocked(now time.Time) {
	if r.sweepLocked(now) > 0 {
		return
	}
	var oldestID string
	var oldest time.Time
	for id, sess := range r.sessions {
		if seen := sess.LastSeen(); oldestID == "" || seen.Before(oldest) {
			oldestID, oldest = id, seen
		}
	}
	if oldestID != "" {
		delete(r.sessions, oldestID)
		r.logger.WithFields(logrus.Fields{
			"sessionId": oldestID,
			"limit":     r.cfg.MaxSessions,
		}).Warn("Session limit reached, dropping least recently seen session")
	}
}

// Lookup returns a live session without creating one.
func (r *Registry) Lookup(id string) (*Session, bool) {
	r.mu.RLock()
	sess, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok || r.now().Sub(sess.LastSeen()) >= r.cfg.TTL {
		return nil, false
	}
	return sess, true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than the TTL and returns how many
// were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sweepLocked(r.now())
}

func (r *Registry) sweepLocked(now time.Time) int {
	removed := 0
	for id, sess := range r.sessions {
		if now.Sub(sess.LastSeen()) >= r.cfg.TTL {
			delete(r.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		r.logger.WithFields(logrus.Fields{
			"removed":   removed,
			"remaining": len(r.sessions),
		}).Info("Expired sessions swept")
	}
	return removed
}

// Start schedules the janitor that sweeps expired sessions.
func (r *Registry) Start() error {
	r.sched = cron.New()
	if _, err := r.sched.AddFunc(JanitorSchedule, func() { r.Sweep() }); err != nil {
		return err
	}
	r.sched.Start()
	return nil
}

// Stop halts the janitor, cancels background loads and waits for both.
func (r *Registry) Stop() {
	r.cancel()
	if r.sched != nil {
		<-r.sched.Stop().Done()
	}
	r.loads.Wait()
}

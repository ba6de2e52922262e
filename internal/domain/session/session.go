// Package session holds the signed-in identity for one consumer with an
// explicit lifecycle: Init loads it and subscribes to auth changes, Close
// tears the subscription down.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"figureit/internal/domain/auth"
	"figureit/internal/pkg/logger"
)

// Loader fetches identity records.
type Loader interface {
	GetUser(ctx context.Context, id uuid.UUID) (*auth.User, error)
	GetProfile(ctx context.Context, id uuid.UUID) (*auth.Profile, error)
}

// Subscriber delivers auth events for one user.
type Subscriber interface {
	Subscribe(userID uuid.UUID) (<-chan auth.Event, func())
}

type Session struct {
	User    *auth.User    `json:"user"`
	Profile *auth.Profile `json:"profile"`
	Loading bool          `json:"loading"`
}

func (s *Session) UserID() uuid.UUID {
	if s == nil || s.User == nil {
		return uuid.Nil
	}
	return s.User.ID
}

func (s *Session) IsAdmin() bool {
	return s != nil && s.Profile != nil && s.Profile.Role == auth.RoleAdmin
}

// Change is emitted after the session state reacted to an auth event.
type Change struct {
	Event   auth.EventType `json:"event"`
	Session Session        `json:"session"`
}

var ErrClosed = errors.New("session closed")

type Provider struct {
	loader Loader
	events Subscriber
	log    *logger.Logger

	mu      sync.RWMutex
	state   Session
	started bool
	closed  bool

	changes     chan Change
	unsubscribe func()
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

func NewProvider(loader Loader, events Subscriber, log *logger.Logger) *Provider {
	return &Provider{
		loader:  loader,
		events:  events,
		log:     log,
		state:   Session{Loading: true},
		changes: make(chan Change, 8),
	}
}

// Init loads the user and profile and starts following auth events. A
// profile that cannot be loaded leaves Profile nil; a user that cannot be
// loaded is an error.
func (p *Provider) Init(ctx context.Context, userID uuid.UUID) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if p.started {
		p.mu.Unlock()
		return nil
	}
	p.started = true
	p.mu.Unlock()

	u, err := p.loader.GetUser(ctx, userID)
	if err != nil {
		p.mu.Lock()
		p.state = Session{}
		p.mu.Unlock()
		return err
	}
	prof := p.loadProfile(ctx, userID)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	events, unsubscribe := p.events.Subscribe(userID)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		cancel()
		unsubscribe()
		return ErrClosed
	}
	p.state = Session{User: u, Profile: prof}
	p.cancel = cancel
	p.unsubscribe = unsubscribe
	p.wg.Add(1)
	go p.follow(runCtx, userID, events)
	return nil
}

func (p *Provider) Current() Session {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Changes is closed by Close.
func (p *Provider) Changes() <-chan Change {
	return p.changes
}

// Close unsubscribes from auth events and closes Changes. Safe to call
// more than once and before Init.
func (p *Provider) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	cancel, unsubscribe := p.cancel, p.unsubscribe
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if unsubscribe != nil {
		unsubscribe()
	}
	p.wg.Wait()
	close(p.changes)
}

func (p *Provider) follow(ctx context.Context, userID uuid.UUID, events <-chan auth.Event) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			next := p.apply(ctx, userID, e)
			select {
			case p.changes <- Change{Event: e.Type, Session: next}:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (p *Provider) apply(ctx context.Context, userID uuid.UUID, e auth.Event) Session {
	if e.Type == auth.EventSignedOut {
		p.mu.Lock()
		p.state = Session{}
		p.mu.Unlock()
		return Session{}
	}

	u, err := p.loader.GetUser(ctx, userID)
	if err != nil {
		p.log.Warn("session user refresh failed", "user_id", userID, "event", e.Type, "error", err)
		p.mu.RLock()
		u = p.state.User
		p.mu.RUnlock()
	}
	prof := p.loadProfile(ctx, userID)

	p.mu.Lock()
	p.state = Session{User: u, Profile: prof}
	s := p.state
	p.mu.Unlock()
	return s
}

func (p *Provider) loadProfile(ctx context.Context, userID uuid.UUID) *auth.Profile {
	prof, err := p.loader.GetProfile(ctx, userID)
	if err != nil {
		p.log.Warn("profile fetch failed", "user_id", userID, "error", err)
		return nil
	}
	return prof
}

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/palaver/internal/logging"
	"github.com/aretw0/palaver/pkg/conversation"
	"github.com/aretw0/palaver/pkg/directory"
	"github.com/aretw0/palaver/pkg/domain"
	"github.com/aretw0/palaver/pkg/ports"
	"github.com/google/uuid"
)

// lockSlack is added to the chat timeout to form the distributed lock TTL, so
// the lock outlives the call it protects.
const lockSlack = 10 * time.Second

// Observer is notified after a session's conversation state changed.
type Observer func(sessionID string, before, after domain.ConversationState)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring one turn at a time per session.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store  ports.StateStore
	sender ports.ChatSender
	lister ports.AgentLister

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker   ports.DistributedLocker
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	timeout  time.Duration
	observer Observer
	now      func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed single-flight.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLogger configures a logger for the Manager and the conversations it drives.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithHooks registers lifecycle hooks for lookups and turns.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Manager) {
		m.hooks = hooks
	}
}

// WithTimeout sets the bounded wait for each chat call.
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithObserver registers a callback fired after every state change.
func WithObserver(obs Observer) Option {
	return func(m *Manager) {
		m.observer = obs
	}
}

// NewManager creates a Manager over store that talks to the remote agent API
// through sender and resolves agents through lister.
func NewManager(store ports.StateStore, sender ports.ChatSender, lister ports.AgentLister, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		sender:  sender,
		lister:  lister,
		locks:   make(map[string]*lockEntry),
		logger:  logging.NewNop(),
		timeout: conversation.DefaultTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start resolves agentID and opens a new session for it.
// When the lookup fails no session is created.
func (m *Manager) Start(ctx context.Context, agentID string) (*domain.Session, error) {
	agent, err := directory.Resolve(ctx, m.lister, agentID, m.hooks)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	now := m.now()
	sess := &domain.Session{
		ID:        id.String(),
		Agent:     agent,
		State:     domain.NewConversationState(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}

	m.logger.Info("Session started", "session_id", sess.ID, "agent_id", agent.ID, "agent_name", agent.Name)
	m.notify(sess.ID, nil, sess.State)
	return sess.Snapshot(), nil
}

// Send runs one turn of the session.
func (m *Manager) Send(ctx context.Context, sessionID, freeform string) (domain.ConversationState, conversation.Turn, error) {
	var (
		next domain.ConversationState
		turn conversation.Turn
	)
	err := m.update(ctx, sessionID, func(sess *domain.Session) error {
		var err error
		next, turn, err = m.conversation(sess.Agent).Send(ctx, sess.State, freeform)
		if err != nil {
			return err
		}
		sess.State = next
		return nil
	})
	return next, turn, err
}

// Pend queues text as the pending input of the session's next turn.
func (m *Manager) Pend(ctx context.Context, sessionID, text string) (domain.ConversationState, error) {
	var next domain.ConversationState
	err := m.update(ctx, sessionID, func(sess *domain.Session) error {
		next = sess.State.WithPending(text)
		sess.State = next
		return nil
	})
	return next, err
}

// Suggest queues the suggested question at index as pending input.
// It fails when suggestions are no longer on offer or index is out of range.
func (m *Manager) Suggest(ctx context.Context, sessionID string, index int) (domain.ConversationState, error) {
	var next domain.ConversationState
	err := m.update(ctx, sessionID, func(sess *domain.Session) error {
		var ok bool
		next, ok = conversation.Suggest(sess.State, index)
		if !ok {
			return fmt.Errorf("%w: %d", ErrNoSuggestion, index+1)
		}
		sess.State = next
		return nil
	})
	return next, err
}

// Reset clears the session's history and thread token together.
func (m *Manager) Reset(ctx context.Context, sessionID string) (domain.ConversationState, error) {
	var next domain.ConversationState
	err := m.update(ctx, sessionID, func(sess *domain.Session) error {
		var err error
		next, err = m.conversation(sess.Agent).Reset(ctx, sess.State)
		if err != nil {
			return err
		}
		sess.State = next
		return nil
	})
	return next, err
}

// State returns a snapshot of the session record.
func (m *Manager) State(ctx context.Context, sessionID string) (*domain.Session, error) {
	return m.store.Load(ctx, sessionID)
}

// Close ends the session, waiting for an in-flight turn to finish first.
func (m *Manager) Close(ctx context.Context, sessionID string) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if _, err := m.store.Load(ctx, sessionID); err != nil {
		return err
	}
	if err := m.store.Delete(ctx, sessionID); err != nil {
		return err
	}
	m.logger.Info("Session closed", "session_id", sessionID)
	return nil
}

// List returns the ids of the live sessions.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying state store.
func (m *Manager) Store() ports.StateStore {
	return m.store
}

// ErrNoSuggestion is returned by Suggest for an unknown suggestion.
var ErrNoSuggestion = errors.New("no such suggested question")

func (m *Manager) conversation(agent domain.AgentDescriptor) *conversation.Session {
	return conversation.New(m.sender, agent,
		conversation.WithTimeout(m.timeout),
		conversation.WithLogger(m.logger),
		conversation.WithHooks(m.hooks),
	)
}

// update loads the session under its single-flight guard, applies fn and saves
// the result.
func (m *Manager) update(ctx context.Context, sessionID string, fn func(*domain.Session) error) error {
	return m.tryWithLock(ctx, sessionID, func(ctx context.Context) error {
		sess, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		before := sess.State.Clone()

		if err := fn(sess); err != nil {
			return err
		}

		sess.UpdatedAt = m.now()
		// fn may have completed a remote turn; persist it even if the caller left.
		if err := m.store.Save(context.WithoutCancel(ctx), sess); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		m.notify(sessionID, &before, sess.State)
		return nil
	})
}

func (m *Manager) notify(sessionID string, before *domain.ConversationState, after domain.ConversationState) {
	if m.observer == nil {
		return
	}
	var old domain.ConversationState
	if before != nil {
		old = *before
	}
	m.observer(sessionID, old, after)
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST call release(sessionID) once done with the entry.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// tryWithLock runs fn while holding the session's lock, or fails with
// domain.ErrTurnInFlight when someone else holds it.
func (m *Manager) tryWithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	defer m.release(sessionID)

	if !entry.mu.TryLock() {
		return domain.ErrTurnInFlight
	}
	defer entry.mu.Unlock()

	if m.locker != nil {
		unlock, ok, err := m.locker.TryLock(ctx, sessionID, m.timeout+lockSlack)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		if !ok {
			return domain.ErrTurnInFlight
		}
		defer func() {
			// The turn's ctx may already be done; release on a fresh one.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

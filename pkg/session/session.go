// Package session tracks workout sessions and the repetitions logged in
// them, with optional persistence through a Store.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-repcount/pkg/detector"
)

// State is the session lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRunning
	StatePaused
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Repetition is one logged repetition.
type Repetition struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	StartTime  float64   `json:"start_time"`
	EndTime    float64   `json:"end_time"`
	Confidence float32   `json:"confidence"`
	LoggedAt   time.Time `json:"logged_at"`
}

// Session is a workout session.
type Session struct {
	ID            string       `json:"id"`
	Exercise      string       `json:"exercise"`
	StartedAt     time.Time    `json:"started_at"`
	EndedAt       *time.Time   `json:"ended_at,omitempty"`
	Repetitions   []Repetition `json:"repetitions"`
	RestDurations []float64    `json:"rest_durations"`
}

// Count returns the number of logged repetitions.
func (s *Session) Count() int {
	return len(s.Repetitions)
}

func (s *Session) clone() *Session {
	c := *s
	c.Repetitions = append([]Repetition(nil), s.Repetitions...)
	c.RestDurations = append([]float64(nil), s.RestDurations...)
	if s.EndedAt != nil {
		t := *s.EndedAt
		c.EndedAt = &t
	}
	return &c
}

// Store persists sessions and repetitions.
type Store interface {
	SaveSession(ctx context.Context, s *Session) error
	SaveRepetition(ctx context.Context, r Repetition) error
	GetSession(ctx context.Context, id string) (*Session, error)
	ListSessions(ctx context.Context, limit int) ([]*Session, error)
	Close() error
}

// Manager drives the session lifecycle:
//
//	idle → running ⇄ paused → ended → running ...
//
// It is safe for concurrent use.
type Manager struct {
	mu        sync.Mutex
	state     State
	current   *Session
	analytics *Analytics

	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewManager creates an idle manager. store may be nil, in which case
// sessions live only in memory until ended.
func NewManager(store Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		state:     StateIdle,
		analytics: NewAnalytics(),
		store:     store,
		logger:    logger,
		now:       time.Now,
	}
}

// Start begins a new session for exercise. Allowed from idle or ended.
func (m *Manager) Start(ctx context.Context, exercise string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateIdle && m.state != StateEnded {
		return nil, fmt.Errorf("%w: start while %s", ErrInvalidState, m.state)
	}

	s := &Session{
		ID:        uuid.New().String(),
		Exercise:  exercise,
		StartedAt: m.now().UTC(),
	}
	if err := m.save(ctx, s); err != nil {
		return nil, err
	}

	m.current = s
	m.analytics = NewAnalytics()
	m.state = StateRunning
	m.logger.Info("session started", "id", s.ID, "exercise", exercise)
	return s.clone(), nil
}

// Pause suspends repetition logging.
func (m *Manager) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateRunning {
		return fmt.Errorf("%w: pause while %s", ErrInvalidState, m.state)
	}
	m.state = StatePaused
	m.logger.Info("session paused", "id", m.current.ID)
	return nil
}

// Resume continues a paused session.
func (m *Manager) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StatePaused {
		return fmt.Errorf("%w: resume while %s", ErrInvalidState, m.state)
	}
	m.state = StateRunning
	m.logger.Info("session resumed", "id", m.current.ID)
	return nil
}

// End closes the current session and returns its final snapshot.
func (m *Manager) End(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateRunning && m.state != StatePaused {
		return nil, fmt.Errorf("%w: end while %s", ErrInvalidState, m.state)
	}

	ended := m.now().UTC()
	m.current.EndedAt = &ended
	m.current.RestDurations = m.analytics.RestDurations()
	if err := m.save(ctx, m.current); err != nil {
		return nil, err
	}

	s := m.current
	m.current = nil
	m.state = StateEnded
	m.logger.Info("session ended", "id", s.ID, "repetitions", s.Count())
	return s.clone(), nil
}

// LogRepetition records a completed repetition in the running session.
func (m *Manager) LogRepetition(ctx context.Context, rep detector.RepetitionLog) (Repetition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateRunning {
		return Repetition{}, ErrNoActiveSession
	}

	r := Repetition{
		ID:         uuid.New().String(),
		SessionID:  m.current.ID,
		StartTime:  rep.StartTime,
		EndTime:    rep.EndTime,
		Confidence: rep.Confidence,
		LoggedAt:   m.now().UTC(),
	}
	if m.store != nil {
		if err := m.store.SaveRepetition(ctx, r); err != nil {
			return Repetition{}, fmt.Errorf("save repetition: %w", err)
		}
	}

	m.current.Repetitions = append(m.current.Repetitions, r)
	m.analytics.RegisterRepetition(rep.StartTime, rep.EndTime)
	m.current.RestDurations = m.analytics.RestDurations()
	return r, nil
}

// UpdateIntensity feeds motion intensity to the running session's
// analytics. It is ignored unless running.
func (m *Manager) UpdateIntensity(intensity, offset float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateRunning {
		return
	}
	m.analytics.UpdateMotionIntensity(intensity, offset)
}

// State returns the lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Current returns a snapshot of the open session, or nil.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return nil
	}
	s := m.current.clone()
	s.RestDurations = m.analytics.RestDurations()
	return s
}

// Get returns a session by ID, preferring the open session.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	if s := m.Current(); s != nil && s.ID == id {
		return s, nil
	}
	if m.store == nil {
		return nil, ErrNotFound
	}
	return m.store.GetSession(ctx, id)
}

// List returns stored sessions, newest first.
func (m *Manager) List(ctx context.Context, limit int) ([]*Session, error) {
	if m.store == nil {
		if s := m.Current(); s != nil {
			return []*Session{s}, nil
		}
		return nil, nil
	}
	return m.store.ListSessions(ctx, limit)
}

func (m *Manager) save(ctx context.Context, s *Session) error {
	if m.store == nil {
		return nil
	}
	if err := m.store.SaveSession(ctx, s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

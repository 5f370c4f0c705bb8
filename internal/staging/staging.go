package staging

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/arielmc/vintage-wizard-sub001/internal/catalog"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	// SessionTTL is how long an untouched pending session lives before
	// the janitor drops it. Stashed sessions are exempt.
	SessionTTL = 30 * time.Minute

	PruneInterval = 5 * time.Minute

	// MaxSessionImages bounds memory per session.
	MaxSessionImages = 12
)

// State is a staging session's lifecycle phase.
type State string

const (
	StatePending = State("pending")
	StateStashed = State("stashed")
)

// Session is an in-progress image upload set that hasn't been committed
// to an inventory item yet. Images are held in memory only.
type Session struct {
	ID        string
	State     State
	Images    []catalog.ImageRef
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Manager holds staging sessions in memory. A process restart loses
// pending uploads; clients re-upload.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager() *Manager {
	return &Manager{sessions: map[string]*Session{}}
}

// Begin opens a new pending session.
func (m *Manager) Begin() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	session := &Session{
		ID:        uuid.NewString(),
		State:     StatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.sessions[session.ID] = session
	return session
}

// AddImage appends image bytes to a session and returns the image's
// position in the set.
func (m *Manager) AddImage(sessionID string, data []byte, mime string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[sessionID]
	if !ok {
		return 0, fmt.Errorf("staging session %s not found", sessionID)
	}
	if len(session.Images) >= MaxSessionImages {
		return 0, fmt.Errorf("staging session %s is full (%d images)", sessionID, MaxSessionImages)
	}

	ref := catalog.ImageRef{
		Kind: catalog.ImageLocalRef,
		Blob: data,
		MIME: mime,
	}
	session.Images = append(session.Images, ref)
	session.UpdatedAt = time.Now()
	return len(session.Images) - 1, nil
}

// Get returns a snapshot of a session, or nil if it doesn't exist.
func (m *Manager) Get(sessionID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[sessionID]
	if !ok {
		return nil
	}
	copied := *session
	copied.Images = append([]catalog.ImageRef(nil), session.Images...)
	return &copied
}

// Confirm closes a session and hands its images to the caller for
// committing to an item. The session is gone afterwards.
func (m *Manager) Confirm(sessionID string) ([]catalog.ImageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("staging session %s not found", sessionID)
	}
	if len(session.Images) == 0 {
		return nil, fmt.Errorf("staging session %s has no images", sessionID)
	}
	delete(m.sessions, sessionID)
	return session.Images, nil
}

// Stash marks a session as parked. Stashed sessions survive the TTL prune
// until explicitly confirmed or cancelled.
func (m *Manager) Stash(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[sessionID]
	if !ok {
		return fmt.Errorf("staging session %s not found", sessionID)
	}
	session.State = StateStashed
	session.UpdatedAt = time.Now()
	return nil
}

// Cancel drops a session and its images.
func (m *Manager) Cancel(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}

// prune drops pending sessions untouched for longer than the TTL.
func (m *Manager) prune(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	pruned := 0
	for id, session := range m.sessions {
		if session.State == StateStashed {
			continue
		}
		if now.Sub(session.UpdatedAt) > SessionTTL {
			delete(m.sessions, id)
			pruned++
		}
	}
	return pruned
}

// Run starts the prune loop. It blocks until the context is cancelled.
func (m *Manager) Run(ctx context.Context) {
	log.Info().Dur("interval", PruneInterval).Msg("starting staging janitor")

	ticker := time.NewTicker(PruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("staging janitor stopped")
			return
		case <-ticker.C:
			if n := m.prune(time.Now()); n > 0 {
				log.Info().Int("pruned", n).Msg("pruned expired staging sessions")
			}
		}
	}
}

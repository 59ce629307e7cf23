package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/warehouse/game/engine"
	"github.com/wricardo/mcp-training/warehouse/game/service"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")

	// ErrCorruptSession marks a stored record whose board cannot belong to its puzzle.
	ErrCorruptSession = errors.New("stored session does not match its puzzle")
)

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// touchInterval is how stale the stored access time may get before a read
// writes the session back.
const touchInterval = time.Minute

// ValidSessionID reports whether id is safe to use as a storage key.
func ValidSessionID(id string) bool {
	return sessionIDPattern.MatchString(id)
}

// key normalizes an ID; session IDs are case-insensitive.
func key(id string) string {
	return strings.ToLower(id)
}

// Manager owns the live warehouse sessions. Every mutation of a session's
// board goes through the service, which calls Save afterwards; the manager
// keeps the store in step with memory.
type Manager struct {
	sessions    map[string]*service.Session
	persistence SessionPersistence
	// stored access times, used to throttle write-backs from reads
	touched map[string]time.Time
	mu      sync.RWMutex
}

// NewManager creates a memory-only session manager
func NewManager() *Manager {
	return NewManagerWithPersistence(nil)
}

// NewManagerWithPersistence creates a session manager writing through to persistence
func NewManagerWithPersistence(persistence SessionPersistence) *Manager {
	return &Manager{
		sessions:    make(map[string]*service.Session),
		persistence: persistence,
		touched:     make(map[string]time.Time),
	}
}

// Create starts a session on the given puzzle. An empty id gets a
// generated 4-character one.
func (m *Manager) Create(id, configID string, config *engine.PuzzleConfig) (*service.Session, error) {
	eng, err := engine.NewEngine(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		id = newSessionID()
		for m.sessions[key(id)] != nil {
			id = newSessionID()
		}
	}
	if !ValidSessionID(id) {
		return nil, ErrInvalidSessionID
	}
	if m.sessions[key(id)] != nil {
		return nil, ErrSessionAlreadyExists
	}

	now := time.Now()
	session := &service.Session{
		ID:             id,
		ConfigID:       configID,
		Engine:         eng,
		Config:         config,
		CreatedAt:      now,
		LastAccessedAt: now,
	}
	m.sessions[key(id)] = session
	m.store(session)

	return session, nil
}

// Get returns a live session, loading it from the store when it is not in memory.
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	session := m.sessions[key(id)]
	m.mu.RUnlock()
	if session != nil {
		return session, nil
	}

	if !ValidSessionID(id) || m.persistence == nil || !m.persistence.Exists(id) {
		return nil, ErrSessionNotFound
	}

	loaded, err := m.loadVerified(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load persisted session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// a concurrent Get may have won the race
	if existing := m.sessions[key(id)]; existing != nil {
		return existing, nil
	}
	m.sessions[key(id)] = loaded
	m.touched[key(id)] = loaded.LastAccessedAt
	return loaded, nil
}

// List returns all live sessions
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

// Delete removes a session from memory and from the store.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, inMemory := m.sessions[key(id)]
	delete(m.sessions, key(id))
	delete(m.touched, key(id))

	if m.persistence != nil && m.persistence.Exists(id) {
		if err := m.persistence.Delete(id); err != nil {
			return fmt.Errorf("failed to delete persisted session: %w", err)
		}
		return nil
	}
	if !inMemory {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteFromMemory evicts a session but leaves its stored copy alone.
func (m *Manager) DeleteFromMemory(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[key(id)]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, key(id))
	delete(m.touched, key(id))
	return nil
}

// UpdateLastAccessed marks a session as used. Reads only write the record
// back once the stored access time is touchInterval old.
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session := m.sessions[key(id)]
	if session == nil {
		return ErrSessionNotFound
	}
	session.LastAccessedAt = time.Now()

	if session.LastAccessedAt.Sub(m.touched[key(id)]) >= touchInterval {
		m.store(session)
	}
	return nil
}

// Save writes a session's current board and history to the store.
func (m *Manager) Save(id string) error {
	if m.persistence == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	session := m.sessions[key(id)]
	if session == nil {
		return ErrSessionNotFound
	}
	if err := m.persistence.Save(session); err != nil {
		return err
	}
	m.touched[key(id)] = session.LastAccessedAt
	return nil
}

// store saves without failing the caller. m.mu must be held for writing.
func (m *Manager) store(session *service.Session) {
	if m.persistence == nil {
		return
	}
	if err := m.persistence.Save(session); err != nil {
		log.Printf("[SESSION] warning: failed to persist %s: %v", session.ID, err)
		return
	}
	m.touched[key(session.ID)] = session.LastAccessedAt
}

// CleanupExpiredSessions evicts sessions idle for longer than maxAge.
// Stored copies stay loadable.
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for k, session := range m.sessions {
		if session.LastAccessedAt.Before(cutoff) {
			delete(m.sessions, k)
			delete(m.touched, k)
			removed++
		}
	}
	return removed
}

// Count returns the number of live sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// newSessionID returns 4 random hex characters
func newSessionID() string {
	b := make([]byte, 2)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// loadVerified loads a record and checks its board against its puzzle.
func (m *Manager) loadVerified(id string) (*service.Session, error) {
	session, err := m.persistence.Load(id)
	if err != nil {
		return nil, err
	}
	if err := verifyRestored(session); err != nil {
		return nil, err
	}
	return session, nil
}

// verifyRestored checks that a restored board can have come from playing its
// puzzle: pushes never resize the warehouse, add or remove boxes, or move walls.
func verifyRestored(session *service.Session) error {
	initial, err := engine.BuildBoard(session.Engine.GetConfig())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptSession, err)
	}
	board := session.Engine.GetState().Board

	if board.Width() != initial.Width() || board.Height() != initial.Height() {
		return fmt.Errorf("%w: board is %dx%d, puzzle is %dx%d", ErrCorruptSession,
			board.Width(), board.Height(), initial.Width(), initial.Height())
	}
	for _, tile := range []engine.Tile{engine.Box, engine.BoxLeft, engine.Wall} {
		if got, want := board.CountTiles(tile), initial.CountTiles(tile); got != want {
			return fmt.Errorf("%w: %d %s cells, puzzle has %d", ErrCorruptSession, got, tile.Name(), want)
		}
	}
	return nil
}

// LoadPersistedSessions brings every stored session into memory. Records
// that fail to load or no longer match their puzzle are deleted from the
// store. It returns how many records were pruned.
func (m *Manager) LoadPersistedSessions() (int, error) {
	if m.persistence == nil {
		return 0, nil
	}

	ids, err := m.persistence.ListAll()
	if err != nil {
		return 0, fmt.Errorf("failed to list persisted sessions: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	loaded, pruned := 0, 0
	for _, id := range ids {
		if m.sessions[key(id)] != nil {
			continue
		}

		session, err := m.loadVerified(id)
		if err != nil {
			log.Printf("[SESSION] warning: pruning stored session %s: %v", id, err)
			if delErr := m.persistence.Delete(id); delErr != nil {
				log.Printf("[SESSION] warning: failed to prune %s: %v", id, delErr)
			} else {
				pruned++
			}
			continue
		}

		m.sessions[key(id)] = session
		m.touched[key(id)] = session.LastAccessedAt
		loaded++
	}

	if loaded > 0 || pruned > 0 {
		log.Printf("[SESSION] loaded %d persisted sessions, pruned %d", loaded, pruned)
	}
	return pruned, nil
}

// SaveAllSessions writes every live session to the store. It is called on
// shutdown so access times and boards survive a restart.
func (m *Manager) SaveAllSessions() error {
	if m.persistence == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for k, session := range m.sessions {
		if err := m.persistence.Save(session); err != nil {
			errs = append(errs, fmt.Errorf("session %s: %w", session.ID, err))
			continue
		}
		m.touched[k] = session.LastAccessedAt
	}
	return errors.Join(errs...)
}

package service

import (
	"errors"
	"sync"

	"transit-backend/internal/liquidation"
	"transit-backend/internal/valuation"

	"github.com/google/uuid"
)

// WorksheetSession is the live editing state of one open note de détail:
// the 11-slot article matrix, the liquidation engine for the active slot,
// and which slot is active. One session exists per worksheet; it is owned
// by the registry, never by a package-level variable, so concurrent
// worksheets (and tenants) cannot cross-talk.
type WorksheetSession struct {
	WorksheetID uuid.UUID
	Matrix      *valuation.Matrix
	Engine      *liquidation.Engine

	// ActiveSlot is 0 while no slot is selected, else 1..11
	ActiveSlot int

	// mu serializes all access to the session; the worksheet flow itself is
	// single-threaded per session, but distinct HTTP requests share it
	mu sync.Mutex
}

func (s *WorksheetSession) lock()   { s.mu.Lock() }
func (s *WorksheetSession) unlock() { s.mu.Unlock() }

// SessionRegistry tracks open worksheet sessions by worksheet id
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*WorksheetSession
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[uuid.UUID]*WorksheetSession)}
}

// Get returns the session for a worksheet if one is open
func (r *SessionRegistry) Get(worksheetID uuid.UUID) (*WorksheetSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[worksheetID]
	return s, ok
}

// GetOrCreate returns the open session for a worksheet, building one via
// the supplied constructor when absent. The constructor runs under the
// registry lock so two concurrent opens cannot both build.
func (r *SessionRegistry) GetOrCreate(worksheetID uuid.UUID, build func() (*WorksheetSession, error)) (*WorksheetSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[worksheetID]; ok {
		return s, nil
	}

	s, err := build()
	if err != nil {
		return nil, err
	}
	r.sessions[worksheetID] = s
	return s, nil
}

// openSession resolves an open session from its worksheet id string
func openSession(registry *SessionRegistry, id string) (*WorksheetSession, error) {
	worksheetID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid worksheet id")
	}
	session, ok := registry.Get(worksheetID)
	if !ok {
		return nil, errors.New("worksheet session is not open")
	}
	return session, nil
}

// Remove closes a session; pending edits not flushed are discarded
func (r *SessionRegistry) Remove(worksheetID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, worksheetID)
}

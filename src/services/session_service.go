package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/username/sigortaapp/backend/src/logger"
	"github.com/username/sigortaapp/backend/src/wizard"
)

// ErrSessionNotFound is returned when a session id is unknown or expired.
var ErrSessionNotFound = errors.New("session not found or expired")

// sessionServiceImpl keeps sessions in an expiring in-memory cache. Nothing
// here is persisted: a wizard session is worthless once the user is gone.
type sessionServiceImpl struct {
	store *cache.Cache
}

// NewSessionService creates the session store with the given idle TTL.
func NewSessionService(ttl time.Duration) SessionService {
	return &sessionServiceImpl{
		store: cache.New(ttl, 2*ttl),
	}
}

func (s *sessionServiceImpl) Create() *wizard.Session {
	session := wizard.NewSession(uuid.NewString())
	s.store.SetDefault(session.ID, session)
	logger.L.Info("Wizard session created", "sessionID", session.ID)
	return session
}

func (s *sessionServiceImpl) Get(id string) (*wizard.Session, error) {
	value, found := s.store.Get(id)
	if !found {
		return nil, ErrSessionNotFound
	}
	// Touch to extend the idle TTL while the user is still working.
	s.store.SetDefault(id, value)
	return value.(*wizard.Session), nil
}

func (s *sessionServiceImpl) Delete(id string) {
	s.store.Delete(id)
	logger.L.Info("Wizard session deleted", "sessionID", id)
}

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"PracticeManager/cache"
	"PracticeManager/models"
	"PracticeManager/utils"
)

// Session is the server side state behind a pair of tokens.
type Session struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	OrgID       string    `json:"org_id"`
	Role        string    `json:"role"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
}

// Can reports whether the session holds permission.
func (s *Session) Can(permission string) bool {
	for _, p := range s.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// SessionStore keeps sessions in Redis under session:<id>, indexed per
// user so they can all be revoked at once.
type SessionStore struct {
	cache *cache.Cache
	ttl   time.Duration
}

func NewSessionStore(c *cache.Cache) *SessionStore {
	return &SessionStore{cache: c, ttl: utils.RefreshTokenExpiry}
}

func sessionKey(id string) string          { return "session:" + id }
func userSessionsKey(userID string) string { return "user_sessions:" + userID }

func (s *SessionStore) Create(ctx context.Context, user *models.User) (*Session, error) {
	session := &Session{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		OrgID:       user.OrganizationID,
		Role:        user.Role.Name,
		Permissions: user.Role.PermissionNames(),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.cache.SetJSON(ctx, sessionKey(session.ID), session, s.ttl); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	if err := s.cache.AddToSet(ctx, userSessionsKey(user.ID), s.ttl, session.ID); err != nil {
		return nil, fmt.Errorf("failed to index session: %w", err)
	}
	return session, nil
}

// Get returns nil when the session expired or was revoked.
func (s *SessionStore) Get(ctx context.Context, id string) (*Session, error) {
	var session Session
	ok, err := s.cache.GetJSON(ctx, sessionKey(id), &session)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &session, nil
}

func (s *SessionStore) Delete(ctx context.Context, session *Session) error {
	if err := s.cache.Delete(ctx, sessionKey(session.ID)); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return s.cache.RemoveFromSet(ctx, userSessionsKey(session.UserID), session.ID)
}

// RevokeUser deletes every session of a user.
func (s *SessionStore) RevokeUser(ctx context.Context, userID string) error {
	ids, err := s.cache.SetMembers(ctx, userSessionsKey(userID))
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}
	keys = append(keys, userSessionsKey(userID))
	if err := s.cache.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}
	return nil
}

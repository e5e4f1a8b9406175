package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/SaiNageswarS/analytics-agent/metrics"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

var (
	ErrSessionExists   = errors.New("session already exists")
	ErrSessionNotFound = errors.New("session not found")
)

// Manager keeps sessions in memory. Idle sessions expire after the TTL.
type Manager struct {
	cache       *cache.Cache
	maxMessages int
}

func NewManager(ttl time.Duration, maxMessages int) *Manager {
	c := cache.New(ttl, ttl/2)
	m := &Manager{cache: c, maxMessages: maxMessages}

	c.OnEvicted(func(key string, _ interface{}) {
		logger.Info("Session evicted", zap.String("session", key))
		metrics.SetActiveSessions(c.ItemCount())
	})
	return m
}

func key(appName, userID, sessionID string) string {
	return appName + "/" + userID + "/" + sessionID
}

func (m *Manager) Create(appName, userID, sessionID string, initial map[string]any) (*Session, error) {
	s := newSession(appName, userID, sessionID, initial, m.maxMessages)
	if err := m.cache.Add(key(appName, userID, sessionID), s, cache.DefaultExpiration); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionExists, sessionID)
	}

	metrics.SetActiveSessions(m.cache.ItemCount())
	logger.Info("Session created",
		zap.String("app", appName),
		zap.String("user", userID),
		zap.String("session", sessionID))
	return s, nil
}

// Get returns the session and refreshes its expiry.
func (m *Manager) Get(appName, userID, sessionID string) (*Session, error) {
	k := key(appName, userID, sessionID)
	x, found := m.cache.Get(k)
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	// Replace fails if the session was deleted in between.
	s := x.(*Session)
	if err := m.cache.Replace(k, s, cache.DefaultExpiration); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return s, nil
}

// Reset discards the session's state and history.
func (m *Manager) Reset(appName, userID, sessionID string) (*Session, error) {
	s, err := m.Get(appName, userID, sessionID)
	if err != nil {
		return nil, err
	}
	s.reset()
	return s, nil
}

func (m *Manager) Delete(appName, userID, sessionID string) {
	m.cache.Delete(key(appName, userID, sessionID))
}

func (m *Manager) Count() int {
	return m.cache.ItemCount()
}

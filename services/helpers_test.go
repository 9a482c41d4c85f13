package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/clientdesk-api/models"
	"github.com/clientdesk-api/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// recordingPublisher keeps the routing keys it was asked to publish
type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	return p.err
}

func (p *recordingPublisher) count(routingKey string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, k := range p.keys {
		if k == routingKey {
			n++
		}
	}
	return n
}

// memoryCache is an UnreadCache backed by a map
type memoryCache struct {
	mu            sync.Mutex
	counts        map[string]int64
	versions      map[string]int64
	hits          int
	invalidations int
	rejected      int
	err           error

	// beforeSet runs once, outside the lock, ahead of the next SetUnread
	beforeSet func()
}

func newMemoryCache() *memoryCache {
	return &memoryCache{counts: make(map[string]int64), versions: make(map[string]int64)}
}

func (c *memoryCache) GetUnread(_ context.Context, userID string) (int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return 0, false, c.err
	}
	n, ok := c.counts[userID]
	if ok {
		c.hits++
	}
	return n, ok, nil
}

func (c *memoryCache) UnreadVersion(_ context.Context, userID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return 0, c.err
	}
	return c.versions[userID], nil
}

func (c *memoryCache) SetUnread(_ context.Context, userID string, count, version int64) (bool, error) {
	c.mu.Lock()
	hook := c.beforeSet
	c.beforeSet = nil
	c.mu.Unlock()
	if hook != nil {
		hook()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return false, c.err
	}
	if c.versions[userID] != version {
		c.rejected++
		return false, nil
	}
	c.counts[userID] = count
	return true, nil
}

func (c *memoryCache) InvalidateUnread(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidations++
	c.versions[userID]++
	delete(c.counts, userID)
	return c.err
}

type fixture struct {
	db            *gorm.DB
	publisher     *recordingPublisher
	notifications *NotificationService
	owner         models.User
	admin         models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	publisher := &recordingPublisher{}
	f := &fixture{
		db:            db,
		publisher:     publisher,
		notifications: NewNotificationService(db, nil, publisher, zap.NewNop()),
		owner:         testutil.CreateUser(t, db, "client@example.com", models.RoleUser),
		admin:         testutil.CreateUser(t, db, "admin@example.com", models.RoleAdmin),
	}
	f.notifications.now = func() time.Time { return testNow }
	return f
}

func (f *fixture) project(t *testing.T, opts ...func(*models.Project)) models.Project {
	t.Helper()
	return testutil.CreateProject(t, f.db, f.owner.ID, opts...)
}

func (f *fixture) notificationCount(t *testing.T, userID string, kind models.NotificationType) int64 {
	t.Helper()
	return testutil.Count(t, f.db, &models.Notification{}, "user_id = ? AND type = ?", userID, string(kind))
}

func withStatus(status models.ProjectStatus) func(*models.Project) {
	return func(p *models.Project) { p.Status = status }
}

// Package session carries the explicit per-editing-session context: who is
// editing, for which tenant, and where the session-scoped autosave slot lives.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// StateKey is the fixed name of the autosave slot. It is namespaced per
// session so concurrent sessions never share a slot.
const StateKey = "campaignBuilderState"

// Context is created when an editing session starts and closed when it
// ends. Closing drops the autosave slot.
type Context struct {
	ID        string
	UserID    string
	TenantIDs []string
	Cache     Cache
	CreatedAt time.Time

	mu       sync.Mutex
	tenantID string
	closed   bool
}

// New opens a session for userID. tenantIDs are the organizations the
// caller belongs to; an empty list means membership is not restricted.
func New(userID string, tenantIDs []string, cache Cache) *Context {
	return NewWithID(uuid.NewString(), userID, tenantIDs, cache)
}

// NewWithID reopens a session under a known id so its autosave slot can be
// read back.
func NewWithID(id, userID string, tenantIDs []string, cache Cache) *Context {
	if id == "" {
		id = uuid.NewString()
	}
	return &Context{
		ID:        id,
		UserID:    userID,
		TenantIDs: tenantIDs,
		Cache:     cache,
		CreatedAt: time.Now(),
	}
}

// CacheKey is the autosave slot of this session. It includes the user so a
// session id alone never reaches another user's slot.
func (c *Context) CacheKey() string {
	return fmt.Sprintf("%s:%s:%s", StateKey, c.UserID, c.ID)
}

// TenantID returns the organization the session is currently scoped to.
func (c *Context) TenantID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tenantID
}

// SetTenant scopes the session to tenantID.
func (c *Context) SetTenant(tenantID string) error {
	if tenantID != "" && !c.IsMember(tenantID) {
		return fmt.Errorf("%w: %s", ErrNotMember, tenantID)
	}
	c.mu.Lock()
	c.tenantID = tenantID
	c.mu.Unlock()
	return nil
}

// IsMember reports whether the user may act on tenantID.
func (c *Context) IsMember(tenantID string) bool {
	if len(c.TenantIDs) == 0 {
		return true
	}
	for _, id := range c.TenantIDs {
		if id == tenantID {
			return true
		}
	}
	return false
}

// Close tears the session down. It is safe to call more than once.
func (c *Context) Close(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	if c.Cache == nil {
		return
	}
	if err := c.Cache.Delete(ctx, c.CacheKey()); err != nil {
		logrus.WithFields(logrus.Fields{
			"operation":  "session_close",
			"session_id": c.ID,
			"error":      err,
		}).Warn("Failed to drop autosave slot")
	}
}

// Closed reports whether Close has been called.
func (c *Context) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

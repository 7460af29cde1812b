// Package refcache holds reference data (buyers, products) looked up during
// bulk ingestion. It is an explicitly owned, time-boxed cache passed by
// reference into the resolver, never hidden package state. The clock is
// injected so expiry is testable.
package refcache

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"taxlink/internal/domain"
)

type buyerEntry struct {
	buyer   domain.Buyer
	expires time.Time
}

type productEntry struct {
	product domain.Product
	expires time.Time
}

// Cache is a TTL cache for resolved reference records, keyed per tenant by
// the record's natural key.
type Cache struct {
	mu       sync.RWMutex
	ttl      time.Duration
	now      func() time.Time
	buyers   map[uuid.UUID]map[string]buyerEntry
	products map[uuid.UUID]map[string]productEntry
}

// New creates a Cache with the given TTL. A nil now falls back to time.Now.
func New(ttl time.Duration, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{
		ttl:      ttl,
		now:      now,
		buyers:   make(map[uuid.UUID]map[string]buyerEntry),
		products: make(map[uuid.UUID]map[string]productEntry),
	}
}

// GetBuyer returns the cached buyer for an NTN, if present and unexpired.
func (c *Cache) GetBuyer(tenantID uuid.UUID, ntn string) (domain.Buyer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.buyers[tenantID][ntn]
	if !ok || c.now().After(e.expires) {
		return domain.Buyer{}, false
	}
	return e.buyer, true
}

// SetBuyer stores a buyer under its NTN.
func (c *Cache) SetBuyer(tenantID uuid.UUID, buyer domain.Buyer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.buyers[tenantID] == nil {
		c.buyers[tenantID] = make(map[string]buyerEntry)
	}
	c.buyers[tenantID][buyer.NTN] = buyerEntry{buyer: buyer, expires: c.now().Add(c.ttl)}
}

// GetProduct returns the cached product for a lower-cased name, if present
// and unexpired.
func (c *Cache) GetProduct(tenantID uuid.UUID, loweredName string) (domain.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.products[tenantID][loweredName]
	if !ok || c.now().After(e.expires) {
		return domain.Product{}, false
	}
	return e.product, true
}

// SetProduct stores a product under a lower-cased name key.
func (c *Cache) SetProduct(tenantID uuid.UUID, loweredName string, product domain.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.products[tenantID] == nil {
		c.products[tenantID] = make(map[string]productEntry)
	}
	c.products[tenantID][loweredName] = productEntry{product: product, expires: c.now().Add(c.ttl)}
}

// Invalidate drops every cached record for a tenant. Called after reference
// data mutations so stale snapshots never validate a batch.
func (c *Cache) Invalidate(tenantID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.buyers, tenantID)
	delete(c.products, tenantID)
}

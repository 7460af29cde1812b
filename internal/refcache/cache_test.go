package refcache

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"taxlink/internal/domain"
)

func TestCache_BuyerRoundTrip(t *testing.T) {
	c := New(5*time.Minute, nil)
	tenantID := uuid.New()
	buyer := domain.Buyer{NTN: "1234567", Name: "Acme Traders"}

	_, ok := c.GetBuyer(tenantID, "1234567")
	assert.False(t, ok)

	c.SetBuyer(tenantID, buyer)
	got, ok := c.GetBuyer(tenantID, "1234567")
	assert.True(t, ok)
	assert.Equal(t, "Acme Traders", got.Name)

	// Another tenant never sees it.
	_, ok = c.GetBuyer(uuid.New(), "1234567")
	assert.False(t, ok)
}

func TestCache_Expiry(t *testing.T) {
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	c := New(5*time.Minute, clock)
	tenantID := uuid.New()

	c.SetProduct(tenantID, "cement", domain.Product{Name: "Cement"})

	_, ok := c.GetProduct(tenantID, "cement")
	assert.True(t, ok)

	now = now.Add(5*time.Minute + time.Second)
	_, ok = c.GetProduct(tenantID, "cement")
	assert.False(t, ok)
}

func TestCache_Invalidate(t *testing.T) {
	c := New(5*time.Minute, nil)
	tenantA := uuid.New()
	tenantB := uuid.New()

	c.SetBuyer(tenantA, domain.Buyer{NTN: "111"})
	c.SetProduct(tenantA, "cement", domain.Product{Name: "Cement"})
	c.SetBuyer(tenantB, domain.Buyer{NTN: "222"})

	c.Invalidate(tenantA)

	_, ok := c.GetBuyer(tenantA, "111")
	assert.False(t, ok)
	_, ok = c.GetProduct(tenantA, "cement")
	assert.False(t, ok)
	_, ok = c.GetBuyer(tenantB, "222")
	assert.True(t, ok)
}

package readmodel

import (
	"testing"
	"time"

	"timebank-go/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheSetGetExpire(t *testing.T) {
	cache := NewCache()
	key := Key{Entity: events.EntityOffer, Query: "explore:user=u1,q="}

	_, ok := cache.Get(key)
	assert.False(t, ok)

	cache.Set(key, []string{"a", "b"}, 50*time.Millisecond)
	value, ok := cache.Get(key)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, value)

	time.Sleep(60 * time.Millisecond)
	_, ok = cache.Get(key)
	assert.False(t, ok)
}

func TestCacheZeroTTLDeletes(t *testing.T) {
	cache := NewCache()
	key := Key{Entity: events.EntityTimeBalance, Query: "user=u1"}

	cache.Set(key, 30, time.Minute)
	cache.Set(key, 30, 0)

	_, ok := cache.Get(key)
	assert.False(t, ok)
}

func TestDeletePrefixScopedToEntity(t *testing.T) {
	cache := NewCache()
	explore := Key{Entity: events.EntityOffer, Query: "explore:user=u1,q="}
	mine := Key{Entity: events.EntityOffer, Query: "mine:user=u1"}
	balance := Key{Entity: events.EntityTimeBalance, Query: "user=u1"}

	cache.Set(explore, 1, time.Minute)
	cache.Set(mine, 2, time.Minute)
	cache.Set(balance, 3, time.Minute)

	cache.DeletePrefix(events.EntityOffer, "explore")

	_, ok := cache.Get(explore)
	assert.False(t, ok)
	_, ok = cache.Get(mine)
	assert.True(t, ok)
	_, ok = cache.Get(balance)
	assert.True(t, ok)
}

type balancePayload struct {
	UserID string
}

func (b balancePayload) BalanceUserID() string { return b.UserID }

func TestInvalidatorFollowsGraph(t *testing.T) {
	cache := NewCache()
	bus := events.NewBus()
	NewInvalidator(cache, bus, DefaultRules())

	explore := Key{Entity: events.EntityOffer, Query: "explore:user=u1,q="}
	mine := Key{Entity: events.EntityOffer, Query: "mine:user=u1"}
	balanceU1 := Key{Entity: events.EntityTimeBalance, Query: "user=u1"}
	balanceU2 := Key{Entity: events.EntityTimeBalance, Query: "user=u2"}

	cache.Set(explore, 1, time.Minute)
	cache.Set(mine, 2, time.Minute)
	cache.Set(balanceU1, 3, time.Minute)
	cache.Set(balanceU2, 4, time.Minute)

	// Application churn drops explore listings but not owner listings.
	bus.Publish(events.Event{Entity: events.EntityApplication, Type: events.TypeUpdate})
	_, ok := cache.Get(explore)
	assert.False(t, ok)
	_, ok = cache.Get(mine)
	assert.True(t, ok)

	// A balance move drops only the owner's balance view.
	bus.Publish(events.Event{Entity: events.EntityTimeBalance, Type: events.TypeUpdate, New: balancePayload{UserID: "u1"}})
	_, ok = cache.Get(balanceU1)
	assert.False(t, ok)
	_, ok = cache.Get(balanceU2)
	assert.True(t, ok)

	// An offer mutation drops every offer-derived listing.
	bus.Publish(events.Event{Entity: events.EntityOffer, Type: events.TypeInsert})
	_, ok = cache.Get(mine)
	assert.False(t, ok)
}

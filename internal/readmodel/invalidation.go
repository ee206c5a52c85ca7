package readmodel

import (
	"timebank-go/internal/events"
)

// Rule maps one source entity to the cached queries its mutations stale.
// Prefix narrows the drop to matching query keys; a nil Prefix drops every
// key of the target entity.
type Rule struct {
	Source events.Entity
	Target events.Entity
	Prefix func(events.Event) string
}

// DefaultRules is the invalidation graph: each mutation enumerates the read
// models it invalidates instead of relying on implicit wiring.
func DefaultRules() []Rule {
	return []Rule{
		// Offer mutations stale every offer-derived listing.
		{Source: events.EntityOffer, Target: events.EntityOffer},
		// Application churn changes accepted counts, which feed explore ranking.
		{Source: events.EntityApplication, Target: events.EntityApplication},
		{Source: events.EntityApplication, Target: events.EntityOffer, Prefix: prefixExplore},
		// Balance moves stale the owner's balance view only.
		{Source: events.EntityTimeBalance, Target: events.EntityTimeBalance, Prefix: prefixBalanceUser},
		// A settlement adds history and changes stats.
		{Source: events.EntityTransaction, Target: events.EntityTransaction},
		{Source: events.EntityProfile, Target: events.EntityProfile},
		// Username edits show up in offer and application listings.
		{Source: events.EntityProfile, Target: events.EntityOffer},
	}
}

type Invalidator struct {
	cache *Cache
	rules []Rule
}

// NewInvalidator subscribes the cache to the bus using the given graph.
func NewInvalidator(cache *Cache, bus *events.Bus, rules []Rule) *Invalidator {
	inv := &Invalidator{cache: cache, rules: rules}
	sources := make(map[events.Entity]struct{})
	for _, rule := range rules {
		sources[rule.Source] = struct{}{}
	}
	for source := range sources {
		bus.Subscribe(source, inv.handle)
	}
	return inv
}

func (i *Invalidator) handle(event events.Event) {
	for _, rule := range i.rules {
		if rule.Source != event.Entity {
			continue
		}
		prefix := ""
		if rule.Prefix != nil {
			prefix = rule.Prefix(event)
		}
		i.cache.DeletePrefix(rule.Target, prefix)
	}
}

func prefixExplore(events.Event) string {
	return "explore"
}

// BalanceOwner is implemented by balance event payloads so the invalidator
// can target the single stale key.
type BalanceOwner interface {
	BalanceUserID() string
}

func prefixBalanceUser(event events.Event) string {
	payload := event.New
	if payload == nil {
		payload = event.Old
	}
	if owner, ok := payload.(BalanceOwner); ok && owner.BalanceUserID() != "" {
		return "user=" + owner.BalanceUserID()
	}
	return ""
}

package offer

import "testing"

func listed(id, serviceType string, accepted int) ListedOffer {
	return ListedOffer{
		Offer:         Offer{ID: id, ServiceType: serviceType},
		AcceptedCount: accepted,
	}
}

func TestScoreEmptyServicesIsZero(t *testing.T) {
	o := listed("a", "Gardening", 5)
	if got := Score(o, nil); got != 0 {
		t.Fatalf("expected 0 with no viewer services, got %d", got)
	}
}

func TestScoreMatchPlusAcceptedCount(t *testing.T) {
	o := listed("a", "Gardening", 2)
	if got := Score(o, []string{"gardening"}); got != 3 {
		t.Fatalf("expected case-insensitive match 1 + accepted 2 = 3, got %d", got)
	}
	if got := Score(o, []string{"Cooking"}); got != 2 {
		t.Fatalf("expected accepted count only, got %d", got)
	}
}

func TestScoreMatchCountsOnce(t *testing.T) {
	o := listed("a", "Gardening", 0)
	if got := Score(o, []string{"Gardening", " gardening "}); got != 1 {
		t.Fatalf("expected a single match point, got %d", got)
	}
}

func TestRankDescendingStable(t *testing.T) {
	offers := []ListedOffer{
		listed("low-1", "Cooking", 0),
		listed("high", "Gardening", 1),
		listed("low-2", "Cooking", 0),
	}

	ranked := Rank(offers, []string{"Gardening"})
	if ranked[0].ID != "high" {
		t.Fatalf("expected highest score first, got %q", ranked[0].ID)
	}
	// Ties keep their incoming relative order.
	if ranked[1].ID != "low-1" || ranked[2].ID != "low-2" {
		t.Fatalf("expected stable tie order, got %q then %q", ranked[1].ID, ranked[2].ID)
	}
}

func TestRankEmptyServicesKeepsOrder(t *testing.T) {
	offers := []ListedOffer{
		listed("a", "Cooking", 3),
		listed("b", "Gardening", 0),
	}

	ranked := Rank(offers, nil)
	if ranked[0].ID != "a" || ranked[1].ID != "b" {
		t.Fatalf("expected input order preserved, got %q then %q", ranked[0].ID, ranked[1].ID)
	}
	for _, o := range ranked {
		if o.RelevanceScore != 0 {
			t.Fatalf("expected zero scores, got %d for %q", o.RelevanceScore, o.ID)
		}
	}
}

func TestRankDoesNotModifyInput(t *testing.T) {
	offers := []ListedOffer{
		listed("a", "Cooking", 0),
		listed("b", "Gardening", 0),
	}

	_ = Rank(offers, []string{"Gardening"})
	if offers[0].ID != "a" || offers[0].RelevanceScore != 0 {
		t.Fatalf("expected input slice untouched, got %+v", offers[0])
	}
}

package offer

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeOfferRepo struct {
	offers   map[string]*Offer
	balances map[string]int
	services map[string][]string
	listed   []ListedOffer
}

func newFakeOfferRepo() *fakeOfferRepo {
	return &fakeOfferRepo{
		offers:   make(map[string]*Offer),
		balances: make(map[string]int),
		services: make(map[string][]string),
	}
}

func (r *fakeOfferRepo) Transaction(ctx context.Context, fn func(Repository) error) error {
	return fn(r)
}

func (r *fakeOfferRepo) CreateOffer(ctx context.Context, o *Offer) error {
	copied := *o
	r.offers[o.ID] = &copied
	return nil
}

func (r *fakeOfferRepo) GetOffer(ctx context.Context, offerID string) (*Offer, error) {
	o, ok := r.offers[offerID]
	if !ok {
		return nil, ErrOfferNotFound
	}
	copied := *o
	return &copied, nil
}

func (r *fakeOfferRepo) UpdateOffer(ctx context.Context, o *Offer) (bool, error) {
	existing, ok := r.offers[o.ID]
	if !ok || existing.OwnerID != o.OwnerID {
		return false, nil
	}
	copied := *o
	r.offers[o.ID] = &copied
	return true, nil
}

func (r *fakeOfferRepo) DeleteOffer(ctx context.Context, offerID, ownerID string) (bool, error) {
	existing, ok := r.offers[offerID]
	if !ok || existing.OwnerID != ownerID {
		return false, nil
	}
	delete(r.offers, offerID)
	return true, nil
}

func (r *fakeOfferRepo) ListByOwner(ctx context.Context, ownerID string) ([]Offer, error) {
	result := make([]Offer, 0)
	for _, o := range r.offers {
		if o.OwnerID == ownerID {
			result = append(result, *o)
		}
	}
	return result, nil
}

func (r *fakeOfferRepo) ListAvailable(ctx context.Context, search string) ([]ListedOffer, error) {
	if search == "" {
		return r.listed, nil
	}
	result := make([]ListedOffer, 0)
	for _, o := range r.listed {
		if strings.Contains(strings.ToLower(o.Title), strings.ToLower(search)) {
			result = append(result, o)
		}
	}
	return result, nil
}

func (r *fakeOfferRepo) GetViewerServices(ctx context.Context, userID string) ([]string, error) {
	return r.services[userID], nil
}

func (r *fakeOfferRepo) DebitBalance(ctx context.Context, userID string, amount int) (bool, error) {
	if r.balances[userID] < amount {
		return false, nil
	}
	r.balances[userID] -= amount
	return true, nil
}

func (r *fakeOfferRepo) CreditBalance(ctx context.Context, userID string, amount int) error {
	r.balances[userID] += amount
	return nil
}

func validCreateInput() CreateInput {
	return CreateInput{
		Title:       "Garden help",
		Description: "Weeding and pruning",
		ServiceType: "Gardening",
		TimeCredits: 3,
	}
}

func TestCreateOfferDebitsBalance(t *testing.T) {
	repo := newFakeOfferRepo()
	repo.balances["owner"] = 10
	svc := NewService(repo, nil, nil, 0)

	o, err := svc.Create(context.Background(), "owner", validCreateInput())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if o.Status != StatusAvailable {
		t.Fatalf("expected available status, got %q", o.Status)
	}
	if got := repo.balances["owner"]; got != 7 {
		t.Fatalf("expected balance 7 after reserving 3, got %d", got)
	}
	if _, ok := repo.offers[o.ID]; !ok {
		t.Fatalf("expected offer persisted")
	}
}

func TestCreateOfferInsufficientCredits(t *testing.T) {
	repo := newFakeOfferRepo()
	repo.balances["owner"] = 2
	svc := NewService(repo, nil, nil, 0)

	_, err := svc.Create(context.Background(), "owner", validCreateInput())
	if !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}
	if got := repo.balances["owner"]; got != 2 {
		t.Fatalf("expected balance untouched at 2, got %d", got)
	}
	if len(repo.offers) != 0 {
		t.Fatalf("expected no offer persisted")
	}
}

func TestDeleteOfferRefundsCredits(t *testing.T) {
	repo := newFakeOfferRepo()
	repo.balances["owner"] = 0
	repo.offers["o1"] = &Offer{ID: "o1", OwnerID: "owner", TimeCredits: 3, Status: StatusAvailable}
	svc := NewService(repo, nil, nil, 0)

	if err := svc.Delete(context.Background(), "owner", "o1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := repo.balances["owner"]; got != 3 {
		t.Fatalf("expected refund of 3, got %d", got)
	}
}

func TestDeleteOfferLockedWhenBooked(t *testing.T) {
	repo := newFakeOfferRepo()
	repo.offers["o1"] = &Offer{ID: "o1", OwnerID: "owner", TimeCredits: 3, Status: StatusBooked}
	svc := NewService(repo, nil, nil, 0)

	err := svc.Delete(context.Background(), "owner", "o1")
	if !errors.Is(err, ErrOfferLocked) {
		t.Fatalf("expected ErrOfferLocked, got %v", err)
	}
	if _, ok := repo.offers["o1"]; !ok {
		t.Fatalf("expected offer kept")
	}
}

func TestUpdateOfferAdjustsReservation(t *testing.T) {
	repo := newFakeOfferRepo()
	repo.balances["owner"] = 4
	repo.offers["o1"] = &Offer{ID: "o1", OwnerID: "owner", Title: "T", Description: "D", ServiceType: "S", TimeCredits: 3, Status: StatusAvailable}
	svc := NewService(repo, nil, nil, 0)

	raise := 5
	o, err := svc.Update(context.Background(), "owner", "o1", UpdateInput{TimeCredits: &raise})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if o.TimeCredits != 5 {
		t.Fatalf("expected credits 5, got %d", o.TimeCredits)
	}
	if got := repo.balances["owner"]; got != 2 {
		t.Fatalf("expected extra 2 debited, got balance %d", got)
	}

	lower := 1
	if _, err := svc.Update(context.Background(), "owner", "o1", UpdateInput{TimeCredits: &lower}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := repo.balances["owner"]; got != 6 {
		t.Fatalf("expected 4 refunded, got balance %d", got)
	}
}

func TestUpdateOfferRaiseBeyondBalance(t *testing.T) {
	repo := newFakeOfferRepo()
	repo.balances["owner"] = 1
	repo.offers["o1"] = &Offer{ID: "o1", OwnerID: "owner", Title: "T", Description: "D", ServiceType: "S", TimeCredits: 3, Status: StatusAvailable}
	svc := NewService(repo, nil, nil, 0)

	raise := 10
	_, err := svc.Update(context.Background(), "owner", "o1", UpdateInput{TimeCredits: &raise})
	if !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}
	if repo.offers["o1"].TimeCredits != 3 {
		t.Fatalf("expected credits unchanged, got %d", repo.offers["o1"].TimeCredits)
	}
}

func TestUpdateOfferNotOwner(t *testing.T) {
	repo := newFakeOfferRepo()
	repo.offers["o1"] = &Offer{ID: "o1", OwnerID: "owner", Status: StatusAvailable}
	svc := NewService(repo, nil, nil, 0)

	title := "New"
	_, err := svc.Update(context.Background(), "intruder", "o1", UpdateInput{Title: &title})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestUpdateOfferStatusToPending(t *testing.T) {
	repo := newFakeOfferRepo()
	repo.offers["o1"] = &Offer{ID: "o1", OwnerID: "owner", Title: "T", Description: "D", ServiceType: "S", TimeCredits: 3, Status: StatusAvailable}
	svc := NewService(repo, nil, nil, 0)

	pending := StatusPending
	o, err := svc.Update(context.Background(), "owner", "o1", UpdateInput{Status: &pending})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if o.Status != StatusPending {
		t.Fatalf("expected pending, got %q", o.Status)
	}

	// Backward move is rejected.
	available := StatusAvailable
	_, err = svc.Update(context.Background(), "owner", "o1", UpdateInput{Status: &available})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	// Owners cannot book directly either.
	booked := StatusBooked
	_, err = svc.Update(context.Background(), "owner", "o1", UpdateInput{Status: &booked})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestCanTransitionTable(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusAvailable, StatusPending, true},
		{StatusAvailable, StatusBooked, true},
		{StatusAvailable, StatusCompleted, false},
		{StatusPending, StatusBooked, true},
		{StatusPending, StatusAvailable, false},
		{StatusBooked, StatusCompleted, true},
		{StatusBooked, StatusAvailable, false},
		{StatusCompleted, StatusAvailable, false},
		{StatusCompleted, StatusBooked, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestExploreRanksWithoutSearch(t *testing.T) {
	repo := newFakeOfferRepo()
	repo.services["viewer"] = []string{"Gardening"}
	repo.listed = []ListedOffer{
		{Offer: Offer{ID: "a", Title: "Cooking class", ServiceType: "Cooking"}},
		{Offer: Offer{ID: "b", Title: "Garden help", ServiceType: "Gardening"}},
	}
	svc := NewService(repo, nil, nil, 0)

	offers, err := svc.Explore(context.Background(), "viewer", "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if offers[0].ID != "b" {
		t.Fatalf("expected matching offer ranked first, got %q", offers[0].ID)
	}
	if offers[0].RelevanceScore != 1 {
		t.Fatalf("expected score 1, got %d", offers[0].RelevanceScore)
	}
}

func TestExploreSearchSkipsRanking(t *testing.T) {
	repo := newFakeOfferRepo()
	repo.services["viewer"] = []string{"Gardening"}
	repo.listed = []ListedOffer{
		{Offer: Offer{ID: "a", Title: "Cooking class", ServiceType: "Cooking"}},
		{Offer: Offer{ID: "b", Title: "Garden help", ServiceType: "Gardening"}},
	}
	svc := NewService(repo, nil, nil, 0)

	offers, err := svc.Explore(context.Background(), "viewer", "cooking")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(offers) != 1 || offers[0].ID != "a" {
		t.Fatalf("expected title match only, got %v", offers)
	}
}

//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"timebank-go/internal/config"
	"timebank-go/internal/db"
	applicationdomain "timebank-go/internal/domain/application"
	offerdomain "timebank-go/internal/domain/offer"
	profiledomain "timebank-go/internal/domain/profile"
	settlementdomain "timebank-go/internal/domain/settlement"
	"timebank-go/internal/events"
	"timebank-go/internal/readmodel"
	applicationrepo "timebank-go/internal/repository/postgres/application"
	offerrepo "timebank-go/internal/repository/postgres/offer"
	profilerepo "timebank-go/internal/repository/postgres/profile"
	settlementrepo "timebank-go/internal/repository/postgres/settlement"
	"timebank-go/internal/transport/httpserver"
	"timebank-go/internal/transport/httpserver/handler"
	commonhandler "timebank-go/internal/transport/httpserver/handler/common"
	offershandler "timebank-go/internal/transport/httpserver/handler/offers"
	profileshandler "timebank-go/internal/transport/httpserver/handler/profiles"
	settlementhandler "timebank-go/internal/transport/httpserver/handler/settlement"
	"timebank-go/pkg/logger"

	"gorm.io/gorm"
)

const (
	ownerToken = "00000000-0000-0000-0000-000000000101"
	aliceToken = "00000000-0000-0000-0000-000000000102"
	bobToken   = "00000000-0000-0000-0000-000000000103"
)

type testEnv struct {
	server     *httptest.Server
	authServer *httptest.Server
	db         *gorm.DB
}

func setupE2E(t *testing.T) *testEnv {
	t.Helper()

	dsn := os.Getenv("E2E_DB_DSN")
	if dsn == "" {
		t.Skip("E2E_DB_DSN not set; skipping e2e tests")
	}

	log := logger.NewFromEnv()
	authServer := newAuthServer(t)

	cfg := config.Config{
		DB: config.DBConfig{DSN: dsn},
		Supabase: config.SupabaseConfig{
			URL:            authServer.URL,
			PublishableKey: "test-key",
			AuthTimeout:    2 * time.Second,
		},
		TimeBank: config.TimeBankConfig{
			StartingBalance: 30,
			ExploreCacheTTL: time.Second,
			BalanceCacheTTL: time.Second,
		},
	}

	dbConn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		t.Fatalf("db connect: %v", err)
	}
	if err := db.Migrate(dbConn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := cleanDB(dbConn); err != nil {
		t.Fatalf("clean db: %v", err)
	}

	bus := events.NewBus()
	cache := readmodel.NewCache()
	readmodel.NewInvalidator(cache, bus, readmodel.DefaultRules())

	profiles := profiledomain.NewService(profilerepo.NewPostgres(dbConn), bus, cfg.TimeBank.StartingBalance)
	offers := offerdomain.NewService(offerrepo.NewPostgres(dbConn), bus, cache, cfg.TimeBank.ExploreCacheTTL)
	applications := applicationdomain.NewService(applicationrepo.NewPostgres(dbConn), bus)
	settlement := settlementdomain.NewService(settlementrepo.NewPostgres(dbConn), bus, cache, cfg.TimeBank.BalanceCacheTTL)

	handlers := handler.New(
		commonhandler.New(),
		profileshandler.New(profiles, log),
		offershandler.New(offers, applications, log),
		settlementhandler.New(settlement, log),
	)

	router := httpserver.NewRouter(cfg, handlers, nil, profiles, log)
	server := httptest.NewServer(router)

	return &testEnv{server: server, authServer: authServer, db: dbConn}
}

func (e *testEnv) Close() {
	e.server.Close()
	e.authServer.Close()
	sqlDB, err := e.db.DB()
	if err == nil {
		_ = sqlDB.Close()
	}
}

func newAuthServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		if token == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		payload := map[string]interface{}{
			"id":    token,
			"email": token + "@example.com",
			"user_metadata": map[string]interface{}{
				"avatar_url": "https://example.com/avatar.png",
			},
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload)
	}))
}

func cleanDB(dbConn *gorm.DB) error {
	return dbConn.WithContext(context.Background()).Exec(
		"TRUNCATE TABLE transactions, offer_applications, offers, time_balances, profiles RESTART IDENTITY CASCADE",
	).Error
}

func requestJSON(t *testing.T, client *http.Client, method, url, token string, payload interface{}) (*http.Response, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}

	return resp, respBody
}

func decodeBody(t *testing.T, body []byte, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(body, dst); err != nil {
		t.Fatalf("decode response %s: %v", string(body), err)
	}
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type offerResponse struct {
	ID          string `json:"id"`
	OwnerID     string `json:"owner_id"`
	Title       string `json:"title"`
	TimeCredits int    `json:"time_credits"`
	Status      string `json:"status"`
}

type applicationResponse struct {
	ID          string `json:"id"`
	OfferID     string `json:"offer_id"`
	ApplicantID string `json:"applicant_id"`
	Status      string `json:"status"`
}

type balanceResponse struct {
	UserID  string `json:"user_id"`
	Balance int    `json:"balance"`
}

type transactionResponse struct {
	ID          string `json:"id"`
	OfferID     string `json:"offer_id"`
	Service     string `json:"service"`
	Hours       int    `json:"hours"`
	RequesterID string `json:"requester_id"`
	ProviderID  string `json:"provider_id"`
}

func getBalance(t *testing.T, client *http.Client, baseURL, token string) int {
	t.Helper()
	resp, body := requestJSON(t, client, http.MethodGet, baseURL+"/api/balance", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get balance: status %d body %s", resp.StatusCode, string(body))
	}
	var balance balanceResponse
	decodeBody(t, body, &balance)
	return balance.Balance
}

func TestE2EOfferLifecycle(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()

	client := &http.Client{Timeout: 5 * time.Second}
	base := env.server.URL

	// First authenticated call seeds the starting balance.
	if got := getBalance(t, client, base, ownerToken); got != 30 {
		t.Fatalf("expected starting balance 30, got %d", got)
	}

	resp, body := requestJSON(t, client, http.MethodPost, base+"/api/offers", ownerToken, map[string]interface{}{
		"title":        "Two hours of gardening",
		"description":  "Weeding, pruning, general tidy-up",
		"service_type": "Gardening",
		"time_credits": 2,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create offer: status %d body %s", resp.StatusCode, string(body))
	}
	var offer offerResponse
	decodeBody(t, body, &offer)
	if offer.Status != "available" {
		t.Fatalf("expected available offer, got %q", offer.Status)
	}

	if got := getBalance(t, client, base, ownerToken); got != 28 {
		t.Fatalf("expected balance 28 after reserving 2, got %d", got)
	}

	resp, body = requestJSON(t, client, http.MethodPost, base+"/api/offers/"+offer.ID+"/applications", aliceToken, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("alice apply: status %d body %s", resp.StatusCode, string(body))
	}
	var aliceApp applicationResponse
	decodeBody(t, body, &aliceApp)

	resp, body = requestJSON(t, client, http.MethodPost, base+"/api/offers/"+offer.ID+"/applications", bobToken, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("bob apply: status %d body %s", resp.StatusCode, string(body))
	}
	var bobApp applicationResponse
	decodeBody(t, body, &bobApp)

	// Duplicate application is rejected.
	resp, body = requestJSON(t, client, http.MethodPost, base+"/api/offers/"+offer.ID+"/applications", aliceToken, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate apply: status %d body %s", resp.StatusCode, string(body))
	}

	// Accept alice; bob is rejected and the offer books in the same step.
	resp, body = requestJSON(t, client, http.MethodPatch, base+"/api/applications/"+aliceApp.ID, ownerToken, map[string]string{
		"status": "accepted",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("accept: status %d body %s", resp.StatusCode, string(body))
	}

	resp, body = requestJSON(t, client, http.MethodGet, base+"/api/offers/"+offer.ID+"/applications/me", bobToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("bob application: status %d body %s", resp.StatusCode, string(body))
	}
	decodeBody(t, body, &bobApp)
	if bobApp.Status != "rejected" {
		t.Fatalf("expected bob rejected, got %q", bobApp.Status)
	}

	resp, body = requestJSON(t, client, http.MethodGet, base+"/api/offers/"+offer.ID, ownerToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get offer: status %d body %s", resp.StatusCode, string(body))
	}
	decodeBody(t, body, &offer)
	if offer.Status != "booked" {
		t.Fatalf("expected booked offer, got %q", offer.Status)
	}

	resp, body = requestJSON(t, client, http.MethodPost, base+"/api/offers/"+offer.ID+"/complete", ownerToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("complete: status %d body %s", resp.StatusCode, string(body))
	}
	var record transactionResponse
	decodeBody(t, body, &record)
	if record.ProviderID != aliceToken || record.RequesterID != ownerToken {
		t.Fatalf("expected provider alice / requester owner, got %+v", record)
	}
	if record.Hours != 2 {
		t.Fatalf("expected 2 hours settled, got %d", record.Hours)
	}

	if got := getBalance(t, client, base, aliceToken); got != 32 {
		t.Fatalf("expected alice credited to 32, got %d", got)
	}
	if got := getBalance(t, client, base, ownerToken); got != 28 {
		t.Fatalf("expected owner unchanged at 28, got %d", got)
	}

	// Completing twice neither credits again nor writes a second row.
	resp, body = requestJSON(t, client, http.MethodPost, base+"/api/offers/"+offer.ID+"/complete", ownerToken, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second complete: status %d body %s", resp.StatusCode, string(body))
	}
	var envelope errorEnvelope
	decodeBody(t, body, &envelope)
	if envelope.Error.Code != "already_completed" {
		t.Fatalf("expected already_completed, got %q", envelope.Error.Code)
	}
	if got := getBalance(t, client, base, aliceToken); got != 32 {
		t.Fatalf("expected alice still at 32, got %d", got)
	}

	resp, body = requestJSON(t, client, http.MethodGet, base+"/api/transactions?role=provider", aliceToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("transactions: status %d body %s", resp.StatusCode, string(body))
	}
	var history []transactionResponse
	decodeBody(t, body, &history)
	if len(history) != 1 {
		t.Fatalf("expected one settlement, got %d", len(history))
	}
}

func TestE2EInsufficientCredits(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()

	client := &http.Client{Timeout: 5 * time.Second}
	base := env.server.URL

	resp, body := requestJSON(t, client, http.MethodPost, base+"/api/offers", ownerToken, map[string]interface{}{
		"title":        "Everything I have and more",
		"description":  "Too ambitious",
		"service_type": "Misc",
		"time_credits": 31,
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected conflict, got %d body %s", resp.StatusCode, string(body))
	}
	var envelope errorEnvelope
	decodeBody(t, body, &envelope)
	if envelope.Error.Code != "insufficient_credits" {
		t.Fatalf("expected insufficient_credits, got %q", envelope.Error.Code)
	}

	if got := getBalance(t, client, base, ownerToken); got != 30 {
		t.Fatalf("expected balance untouched at 30, got %d", got)
	}
}

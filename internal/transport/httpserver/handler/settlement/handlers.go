package settlement

import (
	"errors"
	"net/http"
	"time"

	offerdomain "timebank-go/internal/domain/offer"
	settlementdomain "timebank-go/internal/domain/settlement"
	"timebank-go/internal/transport/httpserver/middleware"
	"timebank-go/pkg/logger"

	"github.com/go-chi/chi/v5"
)

type Handlers struct {
	service *settlementdomain.Service
	log     logger.Logger
}

func New(service *settlementdomain.Service, log logger.Logger) *Handlers {
	return &Handlers{service: service, log: log}
}

type transactionResponse struct {
	ID          string    `json:"id"`
	OfferID     string    `json:"offer_id"`
	Service     string    `json:"service"`
	Hours       int       `json:"hours"`
	RequesterID string    `json:"requester_id"`
	ProviderID  string    `json:"provider_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type transactionViewResponse struct {
	transactionResponse
	OfferTitle           string `json:"offer_title"`
	OfferServiceType     string `json:"offer_service_type"`
	CounterpartyUsername string `json:"counterparty_username"`
}

type balanceResponse struct {
	UserID    string    `json:"user_id"`
	Balance   int       `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

type statsResponse struct {
	HoursGiven    int `json:"hours_given"`
	HoursReceived int `json:"hours_received"`
	OpenOffers    int `json:"open_offers"`
}

// Complete settles a booked offer, crediting the accepted applicant.
func (h *Handlers) Complete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	offerID := chi.URLParam(r, "id")

	record, err := h.service.Complete(r.Context(), user.ID, offerID)
	if err != nil {
		switch {
		case errors.Is(err, offerdomain.ErrOfferNotFound):
			writeError(w, http.StatusNotFound, "offer_not_found", "offer not found")
		case errors.Is(err, settlementdomain.ErrForbidden):
			h.log.BusinessError("settlement.complete: not owner", err, "user_id", user.ID, "offer_id", offerID)
			writeError(w, http.StatusForbidden, "forbidden", "only the offer owner can complete it")
		case errors.Is(err, settlementdomain.ErrAlreadyCompleted):
			writeError(w, http.StatusConflict, "already_completed", "offer is already completed")
		case errors.Is(err, settlementdomain.ErrNoAcceptedApplicant):
			writeError(w, http.StatusConflict, "no_accepted_applicant", "offer has no accepted applicant")
		case errors.Is(err, settlementdomain.ErrOfferNotBooked):
			writeError(w, http.StatusConflict, "offer_not_booked", "offer is not booked")
		default:
			h.log.InternalError("settlement.complete: failed", err, "user_id", user.ID, "offer_id", offerID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponse(*record))
}

func (h *Handlers) GetBalance(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	balance, err := h.service.GetBalance(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, settlementdomain.ErrBalanceNotFound) {
			writeError(w, http.StatusNotFound, "balance_not_found", "balance not found")
			return
		}
		h.log.InternalError("settlement.balance: failed", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{
		UserID:    balance.UserID,
		Balance:   balance.Balance,
		UpdatedAt: balance.UpdatedAt,
	})
}

func (h *Handlers) ListTransactions(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	role := settlementdomain.Role(r.URL.Query().Get("role"))
	if role != settlementdomain.RoleProvider && role != settlementdomain.RoleRequester {
		writeError(w, http.StatusBadRequest, "invalid_request", "role must be provider or requester")
		return
	}

	transactions, err := h.service.ListTransactions(r.Context(), user.ID, role)
	if err != nil {
		h.log.InternalError("settlement.transactions: failed", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	response := make([]transactionViewResponse, 0, len(transactions))
	for _, t := range transactions {
		response = append(response, transactionViewResponse{
			transactionResponse:  toTransactionResponse(t.Transaction),
			OfferTitle:           t.OfferTitle,
			OfferServiceType:     t.OfferServiceType,
			CounterpartyUsername: t.CounterpartyUsername,
		})
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	stats, err := h.service.Stats(r.Context(), user.ID)
	if err != nil {
		h.log.InternalError("settlement.stats: failed", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		HoursGiven:    stats.HoursGiven,
		HoursReceived: stats.HoursReceived,
		OpenOffers:    stats.OpenOffers,
	})
}

func toTransactionResponse(t settlementdomain.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		OfferID:     t.OfferID,
		Service:     t.Service,
		Hours:       t.Hours,
		RequesterID: t.RequesterID,
		ProviderID:  t.ProviderID,
		CreatedAt:   t.CreatedAt,
	}
}

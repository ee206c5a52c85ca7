package offers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	applicationdomain "timebank-go/internal/domain/application"
	offerdomain "timebank-go/internal/domain/offer"
	"timebank-go/internal/transport/httpserver/middleware"
	"timebank-go/pkg/logger"

	"github.com/go-chi/chi/v5"
)

type Handlers struct {
	Offers       *offerdomain.Service
	Applications *applicationdomain.Service
	log          logger.Logger
}

func New(offers *offerdomain.Service, applications *applicationdomain.Service, log logger.Logger) *Handlers {
	return &Handlers{Offers: offers, Applications: applications, log: log}
}

type offerResponse struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ServiceType string    `json:"service_type"`
	Hours       int       `json:"hours"`
	Duration    int       `json:"duration"`
	TimeCredits int       `json:"time_credits"`
	Date        *string   `json:"date"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ownerInfo struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

type listedOfferResponse struct {
	offerResponse
	Owner          ownerInfo `json:"owner"`
	AcceptedCount  int       `json:"accepted_count"`
	RelevanceScore int       `json:"relevance_score"`
}

type createOfferRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ServiceType string  `json:"service_type"`
	Hours       int     `json:"hours"`
	Duration    int     `json:"duration"`
	TimeCredits int     `json:"time_credits"`
	Date        *string `json:"date"`
}

type updateOfferRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	ServiceType *string `json:"service_type"`
	Hours       *int    `json:"hours"`
	Duration    *int    `json:"duration"`
	TimeCredits *int    `json:"time_credits"`
	Date        *string `json:"date"`
	Status      *string `json:"status"`
}

func (h *Handlers) Explore(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	offers, err := h.Offers.Explore(r.Context(), user.ID, r.URL.Query().Get("q"))
	if err != nil {
		h.log.InternalError("offers.explore: failed", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	response := make([]listedOfferResponse, 0, len(offers))
	for _, o := range offers {
		response = append(response, listedOfferResponse{
			offerResponse: toOfferResponse(o.Offer),
			Owner: ownerInfo{
				ID:        o.OwnerID,
				Username:  o.OwnerUsername,
				AvatarURL: o.OwnerAvatarURL,
			},
			AcceptedCount:  o.AcceptedCount,
			RelevanceScore: o.RelevanceScore,
		})
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) Mine(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	offers, err := h.Offers.ListByOwner(r.Context(), user.ID)
	if err != nil {
		h.log.InternalError("offers.mine: failed", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	response := make([]offerResponse, 0, len(offers))
	for _, o := range offers {
		response = append(response, toOfferResponse(o))
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	o, err := h.Offers.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, offerdomain.ErrOfferNotFound) {
			writeError(w, http.StatusNotFound, "offer_not_found", "offer not found")
			return
		}
		h.log.InternalError("offers.get: failed", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toOfferResponse(*o))
}

func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	var req createOfferRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "title is required")
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "description is required")
		return
	}
	if strings.TrimSpace(req.ServiceType) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "service_type is required")
		return
	}
	if req.TimeCredits <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "time_credits must be positive")
		return
	}

	date, err := parseDateParam(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "date must be YYYY-MM-DD")
		return
	}

	o, err := h.Offers.Create(r.Context(), user.ID, offerdomain.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		ServiceType: req.ServiceType,
		Hours:       req.Hours,
		Duration:    req.Duration,
		TimeCredits: req.TimeCredits,
		Date:        date,
	})
	if err != nil {
		if errors.Is(err, offerdomain.ErrInsufficientCredits) {
			h.log.BusinessError("offers.create: insufficient credits", err, "user_id", user.ID)
			writeError(w, http.StatusConflict, "insufficient_credits", "not enough credits to post this offer")
			return
		}
		h.log.InternalError("offers.create: failed", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, toOfferResponse(*o))
}

func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	offerID := chi.URLParam(r, "id")

	var req updateOfferRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "title is required")
		return
	}
	if req.Description != nil && strings.TrimSpace(*req.Description) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "description is required")
		return
	}
	if req.ServiceType != nil && strings.TrimSpace(*req.ServiceType) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "service_type is required")
		return
	}
	if req.Hours != nil && *req.Hours <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "hours must be positive")
		return
	}
	if req.Duration != nil && *req.Duration <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "duration must be positive")
		return
	}
	if req.TimeCredits != nil && *req.TimeCredits <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "time_credits must be positive")
		return
	}

	date, err := parseDateParam(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "date must be YYYY-MM-DD")
		return
	}

	var status *offerdomain.Status
	if req.Status != nil {
		value := offerdomain.Status(strings.TrimSpace(*req.Status))
		status = &value
	}

	o, err := h.Offers.Update(r.Context(), user.ID, offerID, offerdomain.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		ServiceType: req.ServiceType,
		Hours:       req.Hours,
		Duration:    req.Duration,
		TimeCredits: req.TimeCredits,
		Date:        date,
		Status:      status,
	})
	if err != nil {
		h.writeOfferError(w, err, "offers.update", user.ID, offerID)
		return
	}

	writeJSON(w, http.StatusOK, toOfferResponse(*o))
}

func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	offerID := chi.URLParam(r, "id")

	if err := h.Offers.Delete(r.Context(), user.ID, offerID); err != nil {
		h.writeOfferError(w, err, "offers.delete", user.ID, offerID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) writeOfferError(w http.ResponseWriter, err error, op, userID, offerID string) {
	switch {
	case errors.Is(err, offerdomain.ErrOfferNotFound):
		writeError(w, http.StatusNotFound, "offer_not_found", "offer not found")
	case errors.Is(err, offerdomain.ErrForbidden):
		h.log.BusinessError(op+": not owner", err, "user_id", userID, "offer_id", offerID)
		writeError(w, http.StatusForbidden, "forbidden", "only the offer owner can do this")
	case errors.Is(err, offerdomain.ErrOfferLocked):
		h.log.BusinessError(op+": offer locked", err, "user_id", userID, "offer_id", offerID)
		writeError(w, http.StatusConflict, "offer_locked", "offer is booked or completed")
	case errors.Is(err, offerdomain.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", "offer status can only move forward")
	case errors.Is(err, offerdomain.ErrInsufficientCredits):
		h.log.BusinessError(op+": insufficient credits", err, "user_id", userID, "offer_id", offerID)
		writeError(w, http.StatusConflict, "insufficient_credits", "not enough credits")
	default:
		h.log.InternalError(op+": failed", err, "user_id", userID, "offer_id", offerID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func toOfferResponse(o offerdomain.Offer) offerResponse {
	var date *string
	if o.Date != nil {
		formatted := o.Date.Format("2006-01-02")
		date = &formatted
	}
	return offerResponse{
		ID:          o.ID,
		OwnerID:     o.OwnerID,
		Title:       o.Title,
		Description: o.Description,
		ServiceType: o.ServiceType,
		Hours:       o.Hours,
		Duration:    o.Duration,
		TimeCredits: o.TimeCredits,
		Date:        date,
		Status:      string(o.Status),
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

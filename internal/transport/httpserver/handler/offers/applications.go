package offers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	applicationdomain "timebank-go/internal/domain/application"
	offerdomain "timebank-go/internal/domain/offer"
	"timebank-go/internal/transport/httpserver/middleware"

	"github.com/go-chi/chi/v5"
)

type applicationResponse struct {
	ID          string    `json:"id"`
	OfferID     string    `json:"offer_id"`
	ApplicantID string    `json:"applicant_id"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type applicantResponse struct {
	applicationResponse
	Applicant ownerInfo `json:"applicant"`
}

type myApplicationResponse struct {
	applicationResponse
	Offer struct {
		Title       string    `json:"title"`
		Status      string    `json:"status"`
		TimeCredits int       `json:"time_credits"`
		Owner       ownerInfo `json:"owner"`
	} `json:"offer"`
}

type updateApplicationRequest struct {
	Status string `json:"status"`
}

func (h *Handlers) Apply(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	offerID := chi.URLParam(r, "id")

	a, err := h.Applications.Apply(r.Context(), user.ID, offerID)
	if err != nil {
		h.writeApplicationError(w, err, "applications.apply", user.ID, offerID)
		return
	}

	writeJSON(w, http.StatusCreated, toApplicationResponse(*a))
}

func (h *Handlers) ListApplications(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	offerID := chi.URLParam(r, "id")

	applications, err := h.Applications.ListByOffer(r.Context(), user.ID, offerID)
	if err != nil {
		h.writeApplicationError(w, err, "applications.list", user.ID, offerID)
		return
	}

	response := make([]applicantResponse, 0, len(applications))
	for _, a := range applications {
		response = append(response, applicantResponse{
			applicationResponse: toApplicationResponse(a.Application),
			Applicant: ownerInfo{
				ID:        a.ApplicantID,
				Username:  a.ApplicantUsername,
				AvatarURL: a.ApplicantAvatarURL,
			},
		})
	}

	writeJSON(w, http.StatusOK, response)
}

// MyApplication reports the caller's own application on an offer, if any.
func (h *Handlers) MyApplication(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	offerID := chi.URLParam(r, "id")

	a, err := h.Applications.GetMine(r.Context(), user.ID, offerID)
	if err != nil {
		if errors.Is(err, applicationdomain.ErrApplicationNotFound) {
			writeError(w, http.StatusNotFound, "application_not_found", "no application on this offer")
			return
		}
		h.log.InternalError("applications.mine: failed", err, "user_id", user.ID, "offer_id", offerID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toApplicationResponse(*a))
}

func (h *Handlers) ListMyApplications(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	applications, err := h.Applications.ListMine(r.Context(), user.ID)
	if err != nil {
		h.log.InternalError("applications.list_mine: failed", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	response := make([]myApplicationResponse, 0, len(applications))
	for _, a := range applications {
		item := myApplicationResponse{applicationResponse: toApplicationResponse(a.Application)}
		item.Offer.Title = a.OfferTitle
		item.Offer.Status = string(a.OfferStatus)
		item.Offer.TimeCredits = a.OfferTimeCredits
		item.Offer.Owner = ownerInfo{ID: a.OwnerID, Username: a.OwnerUsername}
		response = append(response, item)
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) UpdateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	applicationID := chi.URLParam(r, "id")

	var req updateApplicationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	status := applicationdomain.Status(strings.TrimSpace(req.Status))
	if status != applicationdomain.StatusAccepted && status != applicationdomain.StatusRejected {
		writeError(w, http.StatusBadRequest, "invalid_request", "status must be accepted or rejected")
		return
	}

	a, err := h.Applications.UpdateStatus(r.Context(), user.ID, applicationID, status)
	if err != nil {
		h.writeApplicationError(w, err, "applications.update_status", user.ID, applicationID)
		return
	}

	writeJSON(w, http.StatusOK, toApplicationResponse(*a))
}

func (h *Handlers) writeApplicationError(w http.ResponseWriter, err error, op, userID, entityID string) {
	switch {
	case errors.Is(err, offerdomain.ErrOfferNotFound):
		writeError(w, http.StatusNotFound, "offer_not_found", "offer not found")
	case errors.Is(err, applicationdomain.ErrApplicationNotFound):
		writeError(w, http.StatusNotFound, "application_not_found", "application not found")
	case errors.Is(err, applicationdomain.ErrForbidden):
		h.log.BusinessError(op+": not owner", err, "user_id", userID, "id", entityID)
		writeError(w, http.StatusForbidden, "forbidden", "only the offer owner can do this")
	case errors.Is(err, applicationdomain.ErrOwnApplication):
		h.log.BusinessError(op+": own offer", err, "user_id", userID, "id", entityID)
		writeError(w, http.StatusConflict, "own_application", "cannot apply to your own offer")
	case errors.Is(err, applicationdomain.ErrAlreadyApplied):
		writeError(w, http.StatusConflict, "already_applied", "already applied to this offer")
	case errors.Is(err, applicationdomain.ErrOfferNotOpen):
		writeError(w, http.StatusConflict, "offer_not_open", "offer is no longer open")
	case errors.Is(err, applicationdomain.ErrApplicationDecided):
		writeError(w, http.StatusConflict, "application_decided", "application is already decided")
	default:
		h.log.InternalError(op+": failed", err, "user_id", userID, "id", entityID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func toApplicationResponse(a applicationdomain.Application) applicationResponse {
	return applicationResponse{
		ID:          a.ID,
		OfferID:     a.OfferID,
		ApplicantID: a.ApplicantID,
		Status:      string(a.Status),
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

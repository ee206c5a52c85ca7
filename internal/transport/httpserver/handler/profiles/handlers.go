package profiles

import (
	"errors"
	"net/http"
	"strings"
	"time"

	profiledomain "timebank-go/internal/domain/profile"
	"timebank-go/internal/transport/httpserver/middleware"
	"timebank-go/pkg/logger"
)

type Handlers struct {
	Profiles *profiledomain.Service
	log      logger.Logger
}

func New(profiles *profiledomain.Service, log logger.Logger) *Handlers {
	return &Handlers{Profiles: profiles, log: log}
}

type profileResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  *string   `json:"username"`
	AvatarURL string    `json:"avatar_url"`
	Services  []string  `json:"services"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type updateProfileRequest struct {
	Username  *string  `json:"username"`
	Services  []string `json:"services"`
	AvatarURL *string  `json:"avatar_url"`
}

func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	p, err := h.Profiles.Get(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, profiledomain.ErrProfileNotFound) {
			h.log.BusinessError("profile.get: not found", err, "user_id", user.ID)
			writeError(w, http.StatusNotFound, "profile_not_found", "profile not found")
			return
		}
		h.log.InternalError("profile.get: failed", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(p))
}

func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if username == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", "username is required")
			return
		}
		if len([]rune(username)) > 30 {
			writeError(w, http.StatusBadRequest, "invalid_request", "username must be at most 30 characters")
			return
		}
	}

	p, err := h.Profiles.Update(r.Context(), user.ID, profiledomain.UpdateInput{
		Username:  req.Username,
		Services:  req.Services,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		switch {
		case errors.Is(err, profiledomain.ErrProfileNotFound):
			writeError(w, http.StatusNotFound, "profile_not_found", "profile not found")
		case errors.Is(err, profiledomain.ErrUsernameAlreadySet):
			h.log.BusinessError("profile.update: username already set", err, "user_id", user.ID)
			writeError(w, http.StatusConflict, "username_already_set", "username can only be set once")
		default:
			h.log.InternalError("profile.update: failed", err, "user_id", user.ID)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, toResponse(p))
}

func toResponse(p *profiledomain.Profile) profileResponse {
	services := []string(p.Services)
	if services == nil {
		services = []string{}
	}
	return profileResponse{
		ID:        p.ID,
		Email:     p.Email,
		Username:  p.Username,
		AvatarURL: p.AvatarURL,
		Services:  services,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

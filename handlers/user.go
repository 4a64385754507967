package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/cavemicro/isolate-api/auth"
	"github.com/cavemicro/isolate-api/middleware"
	"github.com/cavemicro/isolate-api/models"
)

// handleRegister creates a new account. The endpoint itself is open, but
// creating an Admin account requires the caller's own credential to
// resolve to an Admin user (enforced in the service).
func (s *APIServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	caller := middleware.UserFrom(r.Context())
	user, err := s.users.Register(caller, &req)
	if err != nil {
		RespondWithServiceError(w, err)
		return
	}
	RespondWithSuccess(w, http.StatusCreated, user)
}

// handleLogin exchanges credentials for a bearer token, mirrored into an
// HTTP-only cookie with the token's 7-day expiry.
func (s *APIServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	login, err := s.users.Login(&req)
	if err != nil {
		RespondWithServiceError(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    login.Token,
		Path:     "/",
		Expires:  time.Now().Add(auth.TokenTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	RespondWithSuccess(w, http.StatusOK, login)
}

// handleUsers serves Admin-only user reads.
func (s *APIServer) handleUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	user := middleware.UserFrom(r.Context())
	if err := s.policy.RequireAccess(user, []string{models.RoleAdmin, "read_user"}); err != nil {
		RespondWithServiceError(w, err)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/user")
	parts := strings.Split(strings.Trim(path, "/"), "/")

	if len(parts) == 1 && parts[0] == "" {
		users, err := s.users.List()
		if err != nil {
			RespondWithServiceError(w, err)
			return
		}
		if len(users) == 0 {
			RespondWithSuccess(w, http.StatusNoContent, nil)
			return
		}
		RespondWithSuccess(w, http.StatusOK, models.CollectionResponse{Items: users, Count: len(users)})
		return
	}

	if len(parts) == 1 {
		id, err := parseID(parts[0])
		if err != nil {
			RespondWithError(w, http.StatusBadRequest, "Invalid user id")
			return
		}
		userResp, err := s.users.Get(id)
		if err != nil {
			RespondWithServiceError(w, err)
			return
		}
		RespondWithSuccess(w, http.StatusOK, userResp)
		return
	}

	RespondWithError(w, http.StatusNotFound, "Endpoint not found")
}

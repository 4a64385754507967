package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cavemicro/isolate-api/middleware"
	"github.com/cavemicro/isolate-api/models"
)

// handleIsolates routes isolate endpoints:
//
//	GET    /api/isolate              list, visibility-filtered (optional auth)
//	GET    /api/isolate/search       keyword search (auth required)
//	GET    /api/isolate/{id}         single fetch (tier-checked)
//	POST   /api/isolate/create       create (auth + permission)
//	PATCH  /api/isolate/update/{id}  partial update (auth + permission)
//	DELETE /api/isolate/delete       batch tombstone (auth + permission)
func (s *APIServer) handleIsolates(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/isolate")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	user := middleware.UserFrom(r.Context())

	if len(parts) == 1 && parts[0] == "" {
		if r.Method != http.MethodGet {
			RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		s.listIsolates(w, r)
		return
	}

	switch {
	case len(parts) == 1 && parts[0] == "search" && r.Method == http.MethodGet:
		if user == nil {
			RespondWithError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		if err := s.policy.RequireAccess(user, readAllowList("isolate")); err != nil {
			RespondWithServiceError(w, err)
			return
		}
		visible, err := s.policy.VisibleLevels(user)
		if err != nil {
			RespondWithServiceError(w, err)
			return
		}
		isolates, err := s.isolates.Search(queryParams(r), visible)
		if err != nil {
			RespondWithServiceError(w, err)
			return
		}
		RespondWithSuccess(w, http.StatusOK, models.CollectionResponse{Items: isolates, Count: len(isolates)})

	case len(parts) == 1 && parts[0] == "create" && r.Method == http.MethodPost:
		if user == nil {
			RespondWithError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		if err := s.policy.RequireAccess(user, mutateAllowList("isolate")); err != nil {
			RespondWithServiceError(w, err)
			return
		}
		var req models.CreateIsolateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			RespondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		isolate, err := s.isolates.Create(&req)
		if err != nil {
			RespondWithServiceError(w, err)
			return
		}
		RespondWithSuccess(w, http.StatusCreated, isolate)

	case len(parts) == 2 && parts[0] == "update" && r.Method == http.MethodPatch:
		if user == nil {
			RespondWithError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		if err := s.policy.RequireAccess(user, mutateAllowList("isolate")); err != nil {
			RespondWithServiceError(w, err)
			return
		}
		id, err := parseID(parts[1])
		if err != nil {
			RespondWithError(w, http.StatusBadRequest, "Invalid isolate id")
			return
		}
		var req models.UpdateIsolateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			RespondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := s.isolates.Update(id, &req); err != nil {
			RespondWithServiceError(w, err)
			return
		}
		// Legacy behavior: the update path acknowledges without
		// re-fetching the updated row.
		RespondWithSuccess(w, http.StatusOK, models.MessageResponse{Message: "isolate updated"})

	case len(parts) == 1 && parts[0] == "delete" && r.Method == http.MethodDelete:
		if user == nil {
			RespondWithError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		if err := s.policy.RequireAccess(user, mutateAllowList("isolate")); err != nil {
			RespondWithServiceError(w, err)
			return
		}
		var req models.DeleteIsolatesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			RespondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := s.isolates.Delete(req.IsolateIDs); err != nil {
			RespondWithServiceError(w, err)
			return
		}
		RespondWithSuccess(w, http.StatusOK, models.MessageResponse{Message: "isolates deleted"})

	case len(parts) == 1 && r.Method == http.MethodGet:
		id, err := parseID(parts[0])
		if err != nil {
			RespondWithError(w, http.StatusBadRequest, "Invalid isolate id")
			return
		}
		isolate, err := s.isolates.Get(id)
		if err != nil {
			RespondWithServiceError(w, err)
			return
		}
		if err := s.policy.AuthorizeIsolateRead(user, isolate); err != nil {
			RespondWithServiceError(w, err)
			return
		}
		RespondWithSuccess(w, http.StatusOK, isolate)

	default:
		RespondWithError(w, http.StatusNotFound, "Endpoint not found")
	}
}

func (s *APIServer) listIsolates(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	visible, err := s.policy.VisibleLevels(user)
	if err != nil {
		RespondWithServiceError(w, err)
		return
	}
	isolates, err := s.isolates.List(visible)
	if err != nil {
		RespondWithServiceError(w, err)
		return
	}
	if len(isolates) == 0 {
		RespondWithSuccess(w, http.StatusNoContent, nil)
		return
	}
	RespondWithSuccess(w, http.StatusOK, models.CollectionResponse{Items: isolates, Count: len(isolates)})
}

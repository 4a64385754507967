package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/cavemicro/isolate-api/middleware"
	"github.com/cavemicro/isolate-api/models"
	"github.com/cavemicro/isolate-api/services"
)

// readAllowList returns the mixed role/permission allow list for read
// operations on a resource. Role names and permission names share one
// list; holding either grants access.
func readAllowList(resource string) []string {
	return []string{models.RoleAdmin, models.RoleResearcher, "read_" + resource}
}

// mutateAllowList returns the allow list for create/update/delete.
func mutateAllowList(resource string) []string {
	return []string{models.RoleAdmin, "manage_" + resource}
}

// mountReference wires the route shape shared by all nine reference
// kinds, using the kind descriptor's resource segment:
//
//	GET    /api/{resource}              list (optional auth)
//	GET    /api/{resource}/search       keyword search (auth required)
//	GET    /api/{resource}/{id}         single fetch (optional auth)
//	POST   /api/{resource}/create       create (auth + permission)
//	PATCH  /api/{resource}/update/{id}  partial update (auth + permission)
//	DELETE /api/{resource}/delete/{id}  delete with in-use guard
func mountReference[T any](mux *http.ServeMux, s *APIServer, svc *services.CatalogService[T]) {
	resource := svc.Resource()
	base := "/api/" + resource
	handler := func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, base)
		parts := strings.Split(strings.Trim(path, "/"), "/")
		user := middleware.UserFrom(r.Context())

		// Collection endpoint: GET /api/{resource}
		if len(parts) == 1 && parts[0] == "" {
			if r.Method != http.MethodGet {
				RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
				return
			}
			rows, err := svc.List()
			if err != nil {
				RespondWithServiceError(w, err)
				return
			}
			if len(rows) == 0 {
				RespondWithSuccess(w, http.StatusNoContent, nil)
				return
			}
			RespondWithSuccess(w, http.StatusOK, models.CollectionResponse{Items: rows, Count: len(rows)})
			return
		}

		switch {
		case len(parts) == 1 && parts[0] == "search":
			if r.Method != http.MethodGet {
				RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
				return
			}
			if user == nil {
				RespondWithError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if err := s.policy.RequireAccess(user, readAllowList(resource)); err != nil {
				RespondWithServiceError(w, err)
				return
			}
			rows, err := svc.Search(queryParams(r))
			if err != nil {
				RespondWithServiceError(w, err)
				return
			}
			RespondWithSuccess(w, http.StatusOK, models.CollectionResponse{Items: rows, Count: len(rows)})

		case len(parts) == 1 && parts[0] == "create":
			if r.Method != http.MethodPost {
				RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
				return
			}
			if user == nil {
				RespondWithError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if err := s.policy.RequireAccess(user, mutateAllowList(resource)); err != nil {
				RespondWithServiceError(w, err)
				return
			}
			attrs, err := decodeAttrs(r)
			if err != nil {
				RespondWithError(w, http.StatusBadRequest, "Invalid request body")
				return
			}
			row, err := svc.Create(attrs)
			if err != nil {
				RespondWithServiceError(w, err)
				return
			}
			RespondWithSuccess(w, http.StatusCreated, row)

		case len(parts) == 2 && parts[0] == "update":
			if r.Method != http.MethodPatch {
				RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
				return
			}
			if user == nil {
				RespondWithError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if err := s.policy.RequireAccess(user, mutateAllowList(resource)); err != nil {
				RespondWithServiceError(w, err)
				return
			}
			id, err := parseID(parts[1])
			if err != nil {
				RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s id", resource))
				return
			}
			attrs, err := decodeAttrs(r)
			if err != nil {
				RespondWithError(w, http.StatusBadRequest, "Invalid request body")
				return
			}
			row, err := svc.Update(id, attrs)
			if err != nil {
				RespondWithServiceError(w, err)
				return
			}
			RespondWithSuccess(w, http.StatusOK, row)

		case len(parts) == 2 && parts[0] == "delete":
			if r.Method != http.MethodDelete {
				RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
				return
			}
			if user == nil {
				RespondWithError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if err := s.policy.RequireAccess(user, mutateAllowList(resource)); err != nil {
				RespondWithServiceError(w, err)
				return
			}
			id, err := parseID(parts[1])
			if err != nil {
				RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s id", resource))
				return
			}
			if err := svc.Delete(id); err != nil {
				RespondWithServiceError(w, err)
				return
			}
			RespondWithSuccess(w, http.StatusOK, models.MessageResponse{Message: fmt.Sprintf("%s deleted", svc.KindName())})

		case len(parts) == 1:
			// Single fetch: GET /api/{resource}/{id}
			if r.Method != http.MethodGet {
				RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
				return
			}
			id, err := parseID(parts[0])
			if err != nil {
				RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s id", resource))
				return
			}
			row, err := svc.Get(id)
			if err != nil {
				RespondWithServiceError(w, err)
				return
			}
			RespondWithSuccess(w, http.StatusOK, row)

		default:
			RespondWithError(w, http.StatusNotFound, "Endpoint not found")
		}
	}

	wrapped := middleware.PanicRecoveryMiddleware(s.auth.Optional(http.HandlerFunc(handler)))
	mux.Handle(base, wrapped)
	mux.Handle(base+"/", wrapped)
}

package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/cavemicro/isolate-api/assetstore"
	"github.com/cavemicro/isolate-api/middleware"
	"github.com/cavemicro/isolate-api/models"
	"github.com/google/uuid"
)

// maxImageBytes caps image uploads at 10 MiB.
const maxImageBytes = 10 << 20

// handleImages attaches and detaches the single image an isolate carries:
//
//	POST   /api/image/upload/{isolateId}  multipart upload, replaces any previous image
//	DELETE /api/image/delete/{isolateId}  removes the image and clears the reference
func (s *APIServer) handleImages(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	if err := s.policy.RequireAccess(user, mutateAllowList("isolate")); err != nil {
		RespondWithServiceError(w, err)
		return
	}
	if s.assets == nil {
		RespondWithError(w, http.StatusInternalServerError, "Asset storage is not configured")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/image")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 {
		RespondWithError(w, http.StatusNotFound, "Endpoint not found")
		return
	}
	id, err := parseID(parts[1])
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid isolate id")
		return
	}

	switch {
	case parts[0] == "upload" && r.Method == http.MethodPost:
		s.uploadImage(w, r, id)
	case parts[0] == "delete" && r.Method == http.MethodDelete:
		s.deleteImage(w, r, id)
	default:
		RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *APIServer) uploadImage(w http.ResponseWriter, r *http.Request, id uint) {
	isolate, err := s.isolates.Get(id)
	if err != nil {
		RespondWithServiceError(w, err)
		return
	}

	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid multipart body")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Missing image file")
		return
	}
	defer file.Close()

	key := fmt.Sprintf("isolates/%d/%s%s", id, uuid.New().String(), filepath.Ext(header.Filename))
	ref, err := s.assets.Upload(r.Context(), key, file, header.Header.Get("Content-Type"))
	if err != nil {
		slog.Error("Image upload failed", "isolateId", id, "error", err)
		RespondWithError(w, http.StatusInternalServerError, "Failed to store image")
		return
	}
	if err := s.isolates.SetImageRef(id, &ref); err != nil {
		RespondWithServiceError(w, err)
		return
	}

	// Best-effort cleanup of the replaced asset.
	if isolate.ImageRef != nil {
		if key := assetstore.KeyFromURL(*isolate.ImageRef); key != "" {
			if _, err := s.assets.Delete(r.Context(), key); err != nil {
				slog.Warn("Failed to delete replaced image", "isolateId", id, "error", err)
			}
		}
	}

	RespondWithSuccess(w, http.StatusCreated, models.ImageResponse{ImageRef: ref})
}

func (s *APIServer) deleteImage(w http.ResponseWriter, r *http.Request, id uint) {
	isolate, err := s.isolates.Get(id)
	if err != nil {
		RespondWithServiceError(w, err)
		return
	}
	if isolate.ImageRef == nil {
		RespondWithError(w, http.StatusNotFound, "Isolate has no image")
		return
	}

	if key := assetstore.KeyFromURL(*isolate.ImageRef); key != "" {
		if _, err := s.assets.Delete(r.Context(), key); err != nil {
			slog.Error("Image delete failed", "isolateId", id, "error", err)
			RespondWithError(w, http.StatusInternalServerError, "Failed to delete image")
			return
		}
	}
	if err := s.isolates.SetImageRef(id, nil); err != nil {
		RespondWithServiceError(w, err)
		return
	}
	RespondWithSuccess(w, http.StatusOK, models.MessageResponse{Message: "image deleted"})
}

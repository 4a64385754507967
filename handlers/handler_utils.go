package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	apierrors "github.com/cavemicro/isolate-api/pkg/errors"
)

// RespondWithSuccess sends a JSON success response.
func RespondWithSuccess(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode success response", "error", err)
	}
}

// RespondWithError sends a JSON error response.
func RespondWithError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	errorResponse := map[string]interface{}{
		"error": message,
		"code":  http.StatusText(statusCode),
	}
	if err := json.NewEncoder(w).Encode(errorResponse); err != nil {
		slog.Error("Failed to encode error response", "error", err)
	}
}

// RespondWithServiceError maps a service error onto its HTTP status.
// Unrecognized errors become 500s with their cause logged, never leaked.
func RespondWithServiceError(w http.ResponseWriter, err error) {
	if apiErr := apierrors.GetAPIError(err); apiErr != nil {
		if apiErr.InternalErr != nil {
			slog.Error("Request failed", "error", apiErr.InternalErr, "code", apiErr.Code)
		}
		RespondWithError(w, apiErr.HTTPStatus, apiErr.Message)
		return
	}
	slog.Error("Unhandled error", "error", err)
	RespondWithError(w, http.StatusInternalServerError, "Internal server error")
}

// parseID parses a positive integer path id.
func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return uint(id), nil
}

// decodeAttrs decodes a flat JSON object into string attributes. Numeric
// values (e.g. an organism's numeric code base) are rendered back as
// their literal digits.
func decodeAttrs(r *http.Request) (map[string]string, error) {
	var raw map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	attrs := make(map[string]string, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			attrs[key] = v
		case float64:
			attrs[key] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			attrs[key] = strconv.FormatBool(v)
		case nil:
			// omitted
		default:
			return nil, fmt.Errorf("field %q must be a scalar", key)
		}
	}
	return attrs, nil
}

// queryParams flattens the URL query into single-valued parameters.
func queryParams(r *http.Request) map[string]string {
	params := map[string]string{}
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	return params
}

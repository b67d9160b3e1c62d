package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// RequireMethod validates that the HTTP request uses the specified method.
// Returns true if the method matches, false otherwise (and writes error response).
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return false
	}
	return true
}

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes a standard error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// userIDFromRequest reads user_id from the query, a form body, or a JSON body
func userIDFromRequest(r *http.Request) string {
	if id := strings.TrimSpace(r.URL.Query().Get("user_id")); id != "" {
		return id
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body struct {
			UserID string `json:"user_id"`
		}
		if err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&body); err == nil {
			return strings.TrimSpace(body.UserID)
		}
		return ""
	}

	return strings.TrimSpace(r.FormValue("user_id"))
}

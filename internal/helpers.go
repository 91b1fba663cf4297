package internal

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const userIDKey contextKey = "userID"

// SetUserIDInContext adds a user ID to the request context
func SetUserIDInContext(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserIDFromContext retrieves the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok
}

// LogRequest logs the request details
func LogRequest(endpoint, message string) {
	log.Infof("[REQUEST] %s - %s", endpoint, message)
}

// LogResponse logs the response details
func LogResponse(endpoint, message string, err error) {
	if err != nil {
		log.Errorf("[RESPONSE] %s - %s: %v", endpoint, message, err)
	} else {
		log.Infof("[RESPONSE] %s - %s", endpoint, message)
	}
}

// EncodeError writes a JSON error response
func EncodeError(w http.ResponseWriter, message string, statusCode int) {
	w.WriteHeader(statusCode)
	response := struct {
		Error  string `json:"error"`
		Status int    `json:"status"`
	}{
		Error:  message,
		Status: statusCode,
	}
	json.NewEncoder(w).Encode(response)
}

// NewID generates a short random URL-safe identifier
func NewID() (string, error) {
	idBytes := make([]byte, 8)
	if _, err := rand.Read(idBytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(idBytes), nil
}

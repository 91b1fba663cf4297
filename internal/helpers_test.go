package internal

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := NewID()
		if err != nil {
			t.Fatalf("NewID() error = %v", err)
		}
		if id == "" {
			t.Fatal("NewID() returned an empty ID")
		}
		if strings.ContainsAny(id, "/+") {
			t.Errorf("NewID() = %q, not URL-safe", id)
		}
		if seen[id] {
			t.Fatalf("NewID() repeated %q", id)
		}
		seen[id] = true
	}
}

func TestEncodeError(t *testing.T) {
	rec := httptest.NewRecorder()
	EncodeError(rec, "something broke", 500)

	if rec.Code != 500 {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	var body struct {
		Error  string `json:"error"`
		Status int    `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Error != "something broke" || body.Status != 500 {
		t.Errorf("body = %+v", body)
	}
}

func TestUserIDContext(t *testing.T) {
	ctx := context.Background()

	if _, ok := GetUserIDFromContext(ctx); ok {
		t.Error("empty context should not yield a user ID")
	}

	ctx = SetUserIDInContext(ctx, "user-123")
	id, ok := GetUserIDFromContext(ctx)
	if !ok || id != "user-123" {
		t.Errorf("GetUserIDFromContext() = %q, %v", id, ok)
	}
}

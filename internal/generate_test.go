package internal

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// fakeChatServer returns an httptest server that answers every chat
// completion with the given content.
func fakeChatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := ChatResponse{
			Choices: []ChatChoice{{Message: ChatMessage{Role: "assistant", Content: content}}},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func testClient(baseURL string) *OpenAIClient {
	c := NewOpenAIClient("test-key")
	c.baseURL = baseURL
	return c
}

func TestGenerateManimCode(t *testing.T) {
	content := "Sure! Here is your animation.\n" +
		"```python\n" +
		"# generated\n" +
		"from manim import *\n\n" +
		"font_size = 48\n\n" +
		"class Title(Scene):\n" +
		"    def construct(self):\n" +
		"        pass\n" +
		"```\n" +
		"```json\n" +
		`[{"id":"t1","type":"text","start":0,"duration":2,"properties":{"font_size":{"type":"number","value":48}}}]` +
		"\n```\n"

	ts := fakeChatServer(t, content)
	defer ts.Close()

	code, metadata, err := GenerateManimCode(testClient(ts.URL), "a title card", "")
	if err != nil {
		t.Fatalf("GenerateManimCode() error = %v", err)
	}

	if !strings.HasPrefix(code, "from manim import *") {
		t.Errorf("code should start at the manim import, got %q", code)
	}
	if !strings.Contains(code, "font_size = 48") {
		t.Errorf("code lost its editable variable: %q", code)
	}

	if len(metadata) != 1 {
		t.Fatalf("expected 1 metadata entry, got %d", len(metadata))
	}
	spec, ok := metadata[0].Properties["font_size"]
	if !ok {
		t.Fatal("metadata entry missing font_size property")
	}
	if string(spec.Value) != "48" {
		t.Errorf("font_size value = %s, want 48", spec.Value)
	}
}

func TestGenerateManimCodeNoCodeBlock(t *testing.T) {
	ts := fakeChatServer(t, "I cannot help with that.")
	defer ts.Close()

	_, _, err := GenerateManimCode(testClient(ts.URL), "a title card", "")
	if err != ErrCodeExtraction {
		t.Fatalf("GenerateManimCode() error = %v, want ErrCodeExtraction", err)
	}
}

func TestGenerateManimCodeUpstreamError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "invalid key"}}`, http.StatusUnauthorized)
	}))
	defer ts.Close()

	_, _, err := GenerateManimCode(testClient(ts.URL), "a title card", "")
	if err == nil {
		t.Fatal("expected an error from the upstream failure")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("error should carry the upstream status, got %v", err)
	}
}

func TestParseMetadata(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{
			name:    "No json block",
			content: "```python\nx = 1\n```",
			want:    0,
		},
		{
			name:    "Invalid json degrades to empty",
			content: "```json\n[{\"id\": broken\n```",
			want:    0,
		},
		{
			name:    "Valid block",
			content: "```json\n[{\"id\":\"a\",\"type\":\"shape\",\"start\":0,\"duration\":1,\"properties\":{}}]\n```",
			want:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseMetadata(tt.content)
			if got == nil {
				t.Fatal("parseMetadata() must never return nil")
			}
			if len(got) != tt.want {
				t.Errorf("parseMetadata() returned %d entries, want %d", len(got), tt.want)
			}
		})
	}
}

func TestFilterMetadata(t *testing.T) {
	blocks := []PropertyBlock{
		{ID: "a", Type: "text", Start: 0, Duration: 2},
		{ID: "a", Type: "shape", Start: 0, Duration: 1},      // duplicate id
		{ID: "b", Type: "sparkle", Start: 0, Duration: 1},    // unknown type
		{ID: "c", Type: "transform", Start: -1, Duration: 1}, // negative start
		{ID: "d", Type: "shape", Start: 1, Duration: -2},     // negative duration
		{ID: "", Type: "text", Start: 0, Duration: 1},        // empty id
		{ID: "e", Type: "shape", Start: 3, Duration: 0},
	}

	got := filterMetadata(blocks)
	if len(got) != 2 {
		t.Fatalf("filterMetadata() kept %d entries, want 2", len(got))
	}
	if got[0].ID != "a" || got[1].ID != "e" {
		t.Errorf("filterMetadata() kept %q and %q, want a and e", got[0].ID, got[1].ID)
	}
}

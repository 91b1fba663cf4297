package internal

import (
	"encoding/json"
	"time"
)

// ApiKeyRequest represents the request to validate an OpenAI API key
type ApiKeyRequest struct {
	APIKey string `json:"api_key"`
}

// CodeGenerationRequest represents the request for Manim code generation
type CodeGenerationRequest struct {
	Prompt string `json:"prompt"`
	APIKey string `json:"api_key,omitempty"`
}

// CodeGenerationResponse carries the generated Manim code together with
// the editable-property metadata the model returned alongside it
type CodeGenerationResponse struct {
	Code     string          `json:"code"`
	Metadata []PropertyBlock `json:"metadata"`
}

// PropertyBlock describes one animation component and its editable
// properties. IDs are unique within a response; Type is one of
// "text", "shape" or "transform".
type PropertyBlock struct {
	ID         string                  `json:"id"`
	Type       string                  `json:"type"`
	Start      float64                 `json:"start"`
	Duration   float64                 `json:"duration"`
	Properties map[string]PropertySpec `json:"properties"`
}

// PropertySpec describes a single editable property of a component
type PropertySpec struct {
	Position  string          `json:"position,omitempty"`
	Scaling   string          `json:"scaling,omitempty"`
	Rotation  string          `json:"rotation,omitempty"`
	Opacity   string          `json:"opacity,omitempty"`
	Color     string          `json:"color,omitempty"`
	Type      string          `json:"type"`
	Value     json.RawMessage `json:"value"`
	Min       *float64        `json:"min,omitempty"`
	Max       *float64        `json:"max,omitempty"`
	Step      *float64        `json:"step,omitempty"`
	Options   []string        `json:"options,omitempty"`
	Multiline bool            `json:"multiline,omitempty"`
	Label     string          `json:"label,omitempty"`
}

// AnimationRequest represents the request to render Manim code
type AnimationRequest struct {
	Code    string `json:"code"`
	Quality string `json:"quality"` // low, medium, high, production, 4k
	Format  string `json:"format"`  // mp4, gif
}

// AnimationResponse represents the render result
type AnimationResponse struct {
	OutputPath string  `json:"output_path"`
	Duration   float64 `json:"duration"`
	Error      string  `json:"error,omitempty"`
}

// UpdateCodeRequest represents the request to rewrite property values
// inside existing Manim code
type UpdateCodeRequest struct {
	Code       string         `json:"code"`
	Properties map[string]any `json:"properties"`
	History    []string       `json:"history,omitempty"`
}

// UpdateCodeResponse carries the updated Manim code
type UpdateCodeResponse struct {
	Code string `json:"code"`
}

// SaveAnimationRequest represents the request to store an animation in
// the library
type SaveAnimationRequest struct {
	Code     string          `json:"code"`
	Prompt   string          `json:"prompt"`
	Metadata []PropertyBlock `json:"metadata,omitempty"`
}

// SaveAnimationResponse returns the ID of the stored animation
type SaveAnimationResponse struct {
	ID string `json:"id"`
}

// SavedAnimation is a library entry as returned by the get/feed endpoints
type SavedAnimation struct {
	ID        string          `json:"id"`
	Prompt    string          `json:"prompt"`
	Code      string          `json:"code"`
	Metadata  []PropertyBlock `json:"metadata"`
	CreatedAt time.Time       `json:"createdAt"`
}

// RegisterRequest represents the user registration request
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the user login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned after successful registration or login
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// User represents user information
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// OpenAI chat completions request structure
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

// ChatMessage represents a message in the chat conversation
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OpenAI chat completions response structure
type ChatResponse struct {
	Choices []ChatChoice `json:"choices"`
}

// ChatChoice represents one completion choice in the response
type ChatChoice struct {
	Message ChatMessage `json:"message"`
}

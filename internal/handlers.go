package internal

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

// Server wires the HTTP surface to the LLM client, the renderer and the
// optional animation library. All dependencies arrive at construction
// time; handlers never reach into the environment.
type Server struct {
	cfg      Config
	llm      *OpenAIClient
	renderer *Renderer
	store    *Store
	limiter  *rate.Limiter
}

// NewServer creates the server. store may be nil, in which case the
// library endpoints report that persistence is unavailable.
func NewServer(cfg Config, llm *OpenAIClient, renderer *Renderer, store *Store) *Server {
	return &Server{
		cfg:      cfg,
		llm:      llm,
		renderer: renderer,
		store:    store,
		// One generation or render per second with room for small
		// bursts; both hold an expensive upstream resource.
		limiter: rate.NewLimiter(rate.Limit(1), 5),
	}
}

// Router configures and returns the application router
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	// Add global middlewares
	r.Use(CorsMiddleware(s.cfg.AllowedOrigins))
	r.Use(LoggingMiddleware)

	// Public routes
	r.HandleFunc("/api/health", s.healthHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/validate-key", s.validateKeyHandler).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/generate-code", RateLimit(s.limiter, s.generateCodeHandler)).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/generate-animation", RateLimit(s.limiter, s.generateAnimationHandler)).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/update-code", RateLimit(s.limiter, s.updateCodeHandler)).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/outputs/{filename}", s.outputFileHandler).Methods(http.MethodGet)

	// Library routes
	r.HandleFunc("/api/register", s.registerHandler).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/login", s.loginHandler).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/animations/{id}", s.getAnimationHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/feed", s.feedHandler).Methods(http.MethodGet)

	// Saving requires an authenticated user
	protected := r.PathPrefix("/api/animations").Subrouter()
	protected.Use(AuthMiddleware(s.cfg.JWTSecretKey))
	protected.HandleFunc("", s.saveAnimationHandler).Methods(http.MethodPost, http.MethodOptions)

	return r
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

func (s *Server) validateKeyHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req ApiKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		LogResponse("/api/validate-key", "Invalid request format", err)
		EncodeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	if err := s.llm.ValidateKey(req.APIKey); err != nil {
		LogResponse("/api/validate-key", "Invalid API key", err)
		EncodeError(w, "Invalid API key", http.StatusUnauthorized)
		return
	}

	LogResponse("/api/validate-key", "API key validated", nil)
	json.NewEncoder(w).Encode(map[string]string{"status": "valid"})
}

func (s *Server) generateCodeHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req CodeGenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		LogResponse("/api/generate-code", "Invalid request format", err)
		EncodeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	if req.Prompt == "" {
		LogResponse("/api/generate-code", "Prompt cannot be empty", nil)
		EncodeError(w, "Prompt cannot be empty", http.StatusBadRequest)
		return
	}

	LogRequest("/api/generate-code", "Prompt: "+req.Prompt)

	code, metadata, err := GenerateManimCode(s.llm, req.Prompt, req.APIKey)
	if err != nil {
		LogResponse("/api/generate-code", "Error generating code", err)
		EncodeError(w, "Failed to generate code: "+err.Error(), http.StatusInternalServerError)
		return
	}

	LogResponse("/api/generate-code", "Code generated successfully", nil)
	json.NewEncoder(w).Encode(CodeGenerationResponse{Code: code, Metadata: metadata})
}

func (s *Server) generateAnimationHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req AnimationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		LogResponse("/api/generate-animation", "Invalid request format", err)
		EncodeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	if req.Code == "" {
		LogResponse("/api/generate-animation", "Code cannot be empty", nil)
		EncodeError(w, "Code cannot be empty", http.StatusBadRequest)
		return
	}
	if req.Quality == "" {
		req.Quality = "medium"
	}
	if req.Format == "" {
		req.Format = "mp4"
	}

	LogRequest("/api/generate-animation", "Rendering with quality: "+req.Quality)

	result, err := s.renderer.Render(req.Code, req.Quality, req.Format)
	if err != nil {
		LogResponse("/api/generate-animation", "Error rendering animation", err)
		EncodeError(w, "Animation generation failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	LogResponse("/api/generate-animation", "Animation rendered: "+result.OutputPath, nil)
	json.NewEncoder(w).Encode(AnimationResponse{
		OutputPath: result.OutputPath,
		Duration:   result.Duration,
	})
}

func (s *Server) updateCodeHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req UpdateCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		LogResponse("/api/update-code", "Invalid request format", err)
		EncodeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	if req.Code == "" {
		LogResponse("/api/update-code", "Code cannot be empty", nil)
		EncodeError(w, "Code cannot be empty", http.StatusBadRequest)
		return
	}

	LogRequest("/api/update-code", "Updating animation properties")

	code, err := UpdateManimCode(s.llm, req.Code, req.Properties, req.History)
	if err != nil {
		LogResponse("/api/update-code", "Error updating code", err)
		EncodeError(w, "Failed to update code: "+err.Error(), http.StatusInternalServerError)
		return
	}

	LogResponse("/api/update-code", "Code updated successfully", nil)
	json.NewEncoder(w).Encode(UpdateCodeResponse{Code: code})
}

func (s *Server) outputFileHandler(w http.ResponseWriter, r *http.Request) {
	// Base strips any path components a client could smuggle in
	filename := filepath.Base(mux.Vars(r)["filename"])
	path := filepath.Join(s.cfg.OutputDir, filename)

	if _, err := os.Stat(path); err != nil {
		LogResponse("/outputs", "File not found: "+filename, nil)
		w.Header().Set("Content-Type", "application/json")
		EncodeError(w, "File not found", http.StatusNotFound)
		return
	}

	if strings.HasSuffix(filename, ".gif") {
		w.Header().Set("Content-Type", "image/gif")
	} else {
		w.Header().Set("Content-Type", "video/mp4")
	}
	http.ServeFile(w, r, path)
}

func (s *Server) registerHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if s.store == nil {
		EncodeError(w, "Animation library is not configured", http.StatusServiceUnavailable)
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		LogResponse("/api/register", "Invalid request format", err)
		EncodeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" || req.Username == "" {
		LogResponse("/api/register", "Username, email and password are required", nil)
		EncodeError(w, "Username, email and password are required", http.StatusBadRequest)
		return
	}

	if s.store.UserExists(req.Email) {
		LogResponse("/api/register", "User already exists", nil)
		EncodeError(w, "User already exists", http.StatusConflict)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		LogResponse("/api/register", "Error hashing password", err)
		EncodeError(w, "Error hashing password", http.StatusInternalServerError)
		return
	}

	userID, err := s.store.CreateUser(req.Email, req.Username, string(hashedPassword))
	if err != nil {
		LogResponse("/api/register", "Error creating user", err)
		EncodeError(w, "Error creating user: "+err.Error(), http.StatusInternalServerError)
		return
	}

	token, err := GenerateJWT(userID, s.cfg.JWTSecretKey)
	if err != nil {
		LogResponse("/api/register", "Error generating token", err)
		EncodeError(w, "Error generating token", http.StatusInternalServerError)
		return
	}

	LogResponse("/api/register", "User registered successfully", nil)
	json.NewEncoder(w).Encode(AuthResponse{
		Token: token,
		User:  User{ID: userID, Email: req.Email, Username: req.Username},
	})
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if s.store == nil {
		EncodeError(w, "Animation library is not configured", http.StatusServiceUnavailable)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		LogResponse("/api/login", "Invalid request format", err)
		EncodeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		LogResponse("/api/login", "Email and password are required", nil)
		EncodeError(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	userID, storedHash, err := s.store.GetUserCredentials(req.Email)
	if err != nil {
		LogResponse("/api/login", "Invalid credentials", nil)
		EncodeError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(req.Password)); err != nil {
		LogResponse("/api/login", "Invalid credentials", nil)
		EncodeError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := GenerateJWT(userID, s.cfg.JWTSecretKey)
	if err != nil {
		LogResponse("/api/login", "Error generating token", err)
		EncodeError(w, "Error generating token", http.StatusInternalServerError)
		return
	}

	user, err := s.store.GetUser(userID)
	if err != nil {
		LogResponse("/api/login", "Error retrieving user details", err)
		EncodeError(w, "Error retrieving user details", http.StatusInternalServerError)
		return
	}

	LogResponse("/api/login", "User logged in successfully", nil)
	json.NewEncoder(w).Encode(AuthResponse{Token: token, User: user})
}

func (s *Server) saveAnimationHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if s.store == nil {
		EncodeError(w, "Animation library is not configured", http.StatusServiceUnavailable)
		return
	}

	var req SaveAnimationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		LogResponse("/api/animations", "Invalid request format", err)
		EncodeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	userID, _ := GetUserIDFromContext(r.Context())

	id, err := s.store.SaveAnimation(userID, req.Prompt, req.Code, req.Metadata)
	if err != nil {
		LogResponse("/api/animations", "Error saving animation", err)
		EncodeError(w, "Error saving animation: "+err.Error(), http.StatusInternalServerError)
		return
	}

	LogResponse("/api/animations", "Animation saved with ID: "+id, nil)
	json.NewEncoder(w).Encode(SaveAnimationResponse{ID: id})
}

func (s *Server) getAnimationHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if s.store == nil {
		EncodeError(w, "Animation library is not configured", http.StatusServiceUnavailable)
		return
	}

	id := mux.Vars(r)["id"]
	anim, err := s.store.GetAnimation(id)
	if err != nil {
		status := http.StatusInternalServerError
		if err == ErrNotFound {
			status = http.StatusNotFound
		}
		LogResponse("/api/animations/{id}", "Error retrieving animation: "+id, err)
		EncodeError(w, "Error retrieving animation: "+err.Error(), status)
		return
	}

	LogResponse("/api/animations/{id}", "Animation retrieved successfully", nil)
	json.NewEncoder(w).Encode(anim)
}

func (s *Server) feedHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if s.store == nil {
		EncodeError(w, "Animation library is not configured", http.StatusServiceUnavailable)
		return
	}

	feed, err := s.store.RecentAnimations(20)
	if err != nil {
		LogResponse("/api/feed", "Error retrieving feed", err)
		EncodeError(w, "Error retrieving feed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	LogResponse("/api/feed", "Feed retrieved successfully", nil)
	json.NewEncoder(w).Encode(feed)
}

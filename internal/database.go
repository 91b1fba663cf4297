package internal

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
	log "github.com/sirupsen/logrus"
)

// ErrNotFound is returned when a library lookup misses.
var ErrNotFound = errors.New("not found")

// Store is the Postgres-backed animation library: saved scripts with
// their prompts and property metadata, plus the user accounts that own
// them. Rendered media never goes here; the outputs directory is its
// own index.
type Store struct {
	db *sql.DB
}

// OpenStore connects to Postgres and creates the schema if missing.
func OpenStore(cfg Config) (*Store, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS animations (
			id VARCHAR(32) PRIMARY KEY,
			user_id VARCHAR(32),
			prompt TEXT,
			code TEXT NOT NULL,
			metadata JSONB,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(32) PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			username VARCHAR(255),
			password_hash TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// SaveAnimation stores a generated script in the library and returns
// its ID.
func (s *Store) SaveAnimation(userID, prompt, code string, metadata []PropertyBlock) (string, error) {
	if code == "" {
		return "", errors.New("animation code cannot be empty")
	}

	id, err := NewID()
	if err != nil {
		return "", err
	}

	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return "", err
	}

	_, err = s.db.Exec(
		"INSERT INTO animations (id, user_id, prompt, code, metadata) VALUES ($1, $2, $3, $4, $5)",
		id, userID, prompt, code, metaJSON)
	if err != nil {
		log.Errorf("[DB] Failed to save animation: %v", err)
		return "", err
	}

	log.Infof("[DB] Animation saved with ID: %s", id)
	return id, nil
}

// GetAnimation retrieves a library entry by ID.
func (s *Store) GetAnimation(id string) (*SavedAnimation, error) {
	if id == "" {
		return nil, errors.New("animation ID cannot be empty")
	}

	var anim SavedAnimation
	var prompt sql.NullString
	var metaJSON []byte
	err := s.db.QueryRow(
		"SELECT id, prompt, code, metadata, created_at FROM animations WHERE id = $1", id,
	).Scan(&anim.ID, &prompt, &anim.Code, &metaJSON, &anim.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		log.Errorf("[DB] Failed to retrieve animation %s: %v", id, err)
		return nil, err
	}

	anim.Prompt = prompt.String
	anim.Metadata = decodeMetadata(metaJSON)
	return &anim, nil
}

// RecentAnimations returns the newest library entries, newest first.
func (s *Store) RecentAnimations(limit int) ([]SavedAnimation, error) {
	rows, err := s.db.Query(
		"SELECT id, prompt, code, metadata, created_at FROM animations ORDER BY created_at DESC LIMIT $1",
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	feed := []SavedAnimation{}
	for rows.Next() {
		var anim SavedAnimation
		var prompt sql.NullString
		var metaJSON []byte
		if err := rows.Scan(&anim.ID, &prompt, &anim.Code, &metaJSON, &anim.CreatedAt); err != nil {
			return nil, err
		}
		anim.Prompt = prompt.String
		anim.Metadata = decodeMetadata(metaJSON)
		feed = append(feed, anim)
	}
	return feed, rows.Err()
}

// decodeMetadata tolerates NULL or malformed stored metadata.
func decodeMetadata(metaJSON []byte) []PropertyBlock {
	if len(metaJSON) == 0 {
		return []PropertyBlock{}
	}
	var blocks []PropertyBlock
	if err := json.Unmarshal(metaJSON, &blocks); err != nil {
		return []PropertyBlock{}
	}
	return blocks
}

// UserExists checks if a user with the given email already exists.
func (s *Store) UserExists(email string) bool {
	var exists bool
	err := s.db.QueryRow("SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)", email).Scan(&exists)
	if err != nil {
		log.Errorf("[DB] Failed to check if user exists: %v", err)
		return false
	}
	return exists
}

// CreateUser stores a new user and returns the user ID.
func (s *Store) CreateUser(email, username, passwordHash string) (string, error) {
	if email == "" || passwordHash == "" {
		return "", errors.New("email and password hash cannot be empty")
	}

	id, err := NewID()
	if err != nil {
		return "", err
	}

	_, err = s.db.Exec(
		"INSERT INTO users (id, email, username, password_hash) VALUES ($1, $2, $3, $4)",
		id, email, username, passwordHash)
	if err != nil {
		log.Errorf("[DB] Failed to create user: %v", err)
		return "", err
	}

	log.Infof("[DB] User created with ID: %s", id)
	return id, nil
}

// GetUserCredentials retrieves a user's ID and password hash by email.
func (s *Store) GetUserCredentials(email string) (string, string, error) {
	if email == "" {
		return "", "", errors.New("email cannot be empty")
	}

	var id, passwordHash string
	err := s.db.QueryRow("SELECT id, password_hash FROM users WHERE email = $1", email).
		Scan(&id, &passwordHash)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", "", ErrNotFound
		}
		log.Errorf("[DB] Failed to retrieve user: %v", err)
		return "", "", err
	}
	return id, passwordHash, nil
}

// GetUser retrieves user details by ID.
func (s *Store) GetUser(id string) (User, error) {
	if id == "" {
		return User{}, errors.New("user ID cannot be empty")
	}

	var user User
	var username sql.NullString
	err := s.db.QueryRow("SELECT id, username, email FROM users WHERE id = $1", id).
		Scan(&user.ID, &username, &user.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	user.Username = username.String
	return user, nil
}

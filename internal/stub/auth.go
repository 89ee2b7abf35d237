package stub

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"femstat/internal/errors"
	"femstat/models"
)

// userStore is the in-memory account registry of the development backend.
// Tokens are opaque UUIDs; nothing here survives a restart.
type userStore struct {
	mu     sync.Mutex
	byMail map[string]*storedUser
	tokens map[string]string // token -> user id
}

type storedUser struct {
	user         models.User
	passwordHash string
}

func newUserStore() *userStore {
	return &userStore{
		byMail: make(map[string]*storedUser),
		tokens: make(map[string]string),
	}
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// Signup registers a new user and returns their first token.
func (s *userStore) Signup(req models.UserCreate) (*models.Token, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, errors.InvalidInput("A valid email address is required")
	}
	if len(req.Password) < 8 {
		return nil, errors.InvalidInput("Password must be at least 8 characters")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byMail[email]; exists {
		return nil, errors.InvalidInput("Email already registered")
	}

	user := models.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      req.Name,
		CreatedAt: time.Now().UTC(),
	}
	s.byMail[email] = &storedUser{user: user, passwordHash: hashPassword(req.Password)}

	return s.issueLocked(user), nil
}

// Login exchanges credentials for a token.
func (s *userStore) Login(req models.UserLogin) (*models.Token, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.byMail[email]
	if !exists || stored.passwordHash != hashPassword(req.Password) {
		return nil, errors.Unauthorized("Incorrect email or password")
	}

	now := time.Now().UTC()
	stored.user.LastLogin = &now
	return s.issueLocked(stored.user), nil
}

func (s *userStore) issueLocked(user models.User) *models.Token {
	token := uuid.NewString()
	s.tokens[token] = user.ID
	u := user
	return &models.Token{AccessToken: token, TokenType: "bearer", User: &u}
}

// Count reports how many accounts exist (the /api/auth/stats payload).
func (s *userStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byMail)
}

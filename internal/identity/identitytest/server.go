// Package identitytest provides an in-process fake of the identity
// service for tests. It implements the same wire contract as the real
// service (login, register, logout, me) over an httptest server, with
// seedable accounts and inspectable issued tokens.
package identitytest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Account is a seeded identity the fake will authenticate.
type Account struct {
	ID          int
	Name        string
	Email       string
	Phone       string
	Password    string
	RoleID      int
	HouseNumber string
	EstateID    string
	Active      bool
	CreatedAt   time.Time
}

// Server is the fake identity service.
type Server struct {
	mu       sync.Mutex
	accounts map[string]*Account // keyed by email
	tokens   map[string]string   // token -> email
	nextID   int

	httpServer *httptest.Server
}

// New starts a fake identity service. Callers must Close it.
func New() *Server {
	s := &Server{
		accounts: make(map[string]*Account),
		tokens:   make(map[string]string),
		nextID:   1,
	}

	r := chi.NewRouter()
	r.Post("/login", s.handleLogin)
	r.Post("/register", s.handleRegister)
	r.Post("/logout", s.handleLogout)
	r.Get("/me", s.handleMe)

	s.httpServer = httptest.NewServer(r)
	return s
}

// URL returns the base URL of the fake service.
func (s *Server) URL() string {
	return s.httpServer.URL
}

// Close shuts the fake down.
func (s *Server) Close() {
	s.httpServer.Close()
}

// Seed registers an account the fake will accept credentials for.
// A zero ID is assigned automatically.
func (s *Server) Seed(account Account) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if account.ID == 0 {
		account.ID = s.nextID
	}
	if account.ID >= s.nextID {
		s.nextID = account.ID + 1
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	s.accounts[account.Email] = &account
}

// IssueToken mints a valid token for a seeded account, bypassing login.
func (s *Server) IssueToken(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	token := uuid.NewString()
	s.tokens[token] = email
	return token
}

// RevokeToken invalidates a token, simulating server-side expiry.
func (s *Server) RevokeToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

// TokenValid reports whether the fake still honours the token.
func (s *Server) TokenValid(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tokens[token]
	return ok
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[req.Email]
	if !ok || account.Password != req.Password {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token := uuid.NewString()
	s.tokens[token] = account.Email
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  userPayload(account),
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name                 string `json:"name"`
		Email                string `json:"email"`
		PhoneNumber          string `json:"phone_number"`
		Password             string `json:"password"`
		PasswordConfirmation string `json:"password_confirmation"`
		RoleID               int    `json:"role_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request")
		return
	}
	if req.Password == "" || req.Password != req.PasswordConfirmation {
		writeError(w, http.StatusUnprocessableEntity, "password confirmation does not match")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[req.Email]; exists {
		writeError(w, http.StatusUnprocessableEntity, "email already taken")
		return
	}

	account := &Account{
		ID:        s.nextID,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.PhoneNumber,
		Password:  req.Password,
		RoleID:    req.RoleID,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	s.nextID++
	s.accounts[account.Email] = account

	token := uuid.NewString()
	s.tokens[token] = account.Email
	writeJSON(w, http.StatusCreated, map[string]any{
		"token": token,
		"user":  userPayload(account),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tokens[token]; !ok {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	delete(s.tokens, token)
	writeJSON(w, http.StatusOK, map[string]any{"message": "logged out"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	email, ok := s.tokens[token]
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	account, ok := s.accounts[email]
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": userPayload(account)})
}

func userPayload(a *Account) map[string]any {
	payload := map[string]any{
		"id":           strconv.Itoa(a.ID),
		"name":         a.Name,
		"email":        a.Email,
		"phone_number": a.Phone,
		"role_id":      a.RoleID,
		"is_active":    a.Active,
		"created_at":   a.CreatedAt.Format(time.RFC3339),
	}
	if a.HouseNumber != "" {
		payload["house_number"] = a.HouseNumber
	}
	if a.EstateID != "" {
		payload["estate_id"] = a.EstateID
	}
	return payload
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	return strings.TrimPrefix(header, "Bearer ")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body) //nolint:errcheck // test fake
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

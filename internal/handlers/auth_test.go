package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/skillswap/backend/internal/auth"
	"github.com/skillswap/backend/internal/directory"
	"github.com/skillswap/backend/internal/models"
	"github.com/skillswap/backend/internal/repositories"
)

type inMemoryUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newInMemoryUserStore() *inMemoryUserStore {
	return &inMemoryUserStore{users: make(map[string]models.User)}
}

func (s *inMemoryUserStore) Create(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *inMemoryUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *inMemoryUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *inMemoryUserStore) Update(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.users[user.ID] = user
	return nil
}

type denyLimiter struct{}

func (denyLimiter) Allow(string) bool { return false }

func newTestManager() *auth.Manager {
	return auth.NewManager(time.Minute, time.Hour, []byte("test-secret"), auth.NewInMemorySessionStore())
}

func postJSON(t *testing.T, target string, payload any) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestAuthHandlerSignUp(t *testing.T) {
	store := newInMemoryUserStore()
	dir := directory.New(directory.DefaultCatalog()...)
	handler := AuthHandler{Users: store, Sessions: newTestManager(), Directory: dir}

	req := postJSON(t, "/api/v1/auth/signup", signUpRequest{FullName: " Priya Nair ", Email: "Test@Example.com", Password: "supersafe", Confirm: "supersafe"})
	rec := httptest.NewRecorder()

	handler.SignUp(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d", http.StatusCreated, rec.Code)
	}

	resp := decodeBody[authResponse](t, rec)
	if resp.Tokens.AccessToken == "" || resp.Tokens.RefreshToken == "" {
		t.Fatalf("expected tokens to be issued, got %+v", resp.Tokens)
	}
	if resp.User == nil || resp.User.FullName != "Priya Nair" || resp.User.Email != "test@example.com" {
		t.Fatalf("unexpected user in response: %+v", resp.User)
	}

	stored, err := store.FindByEmail(context.Background(), "test@example.com")
	if err != nil {
		t.Fatalf("expected user to be stored: %v", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("supersafe")) != nil {
		t.Fatal("stored password is not hashed")
	}

	profile, ok := dir.Get(stored.ID)
	if !ok || profile.Name != "Priya Nair" || profile.Role != models.RoleMember {
		t.Fatalf("expected new account in directory, got %+v (found=%v)", profile, ok)
	}
}

func TestAuthHandlerSignUpValidation(t *testing.T) {
	store := newInMemoryUserStore()
	store.users["existing"] = models.User{ID: "existing", Email: "taken@example.com"}
	handler := AuthHandler{Users: store, Sessions: newTestManager()}

	tests := []struct {
		name    string
		payload signUpRequest
		status  int
		message string
	}{
		{name: "missing name", payload: signUpRequest{Email: "a@example.com", Password: "password1", Confirm: "password1"}, status: http.StatusBadRequest, message: "please fill in all fields"},
		{name: "missing confirm", payload: signUpRequest{FullName: "A", Email: "a@example.com", Password: "password1"}, status: http.StatusBadRequest, message: "please fill in all fields"},
		{name: "bad email", payload: signUpRequest{FullName: "A", Email: "not-an-email", Password: "password1", Confirm: "password1"}, status: http.StatusBadRequest, message: "invalid email address"},
		{name: "short password", payload: signUpRequest{FullName: "A", Email: "a@example.com", Password: "short", Confirm: "short"}, status: http.StatusBadRequest, message: "password must be at least 8 characters"},
		{name: "mismatch", payload: signUpRequest{FullName: "A", Email: "a@example.com", Password: "password1", Confirm: "password2"}, status: http.StatusBadRequest, message: "passwords do not match"},
		{name: "taken", payload: signUpRequest{FullName: "A", Email: "TAKEN@example.com", Password: "password1", Confirm: "password1"}, status: http.StatusConflict, message: "email already registered"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.SignUp(rec, postJSON(t, "/api/v1/auth/signup", tt.payload))

			if rec.Code != tt.status {
				t.Fatalf("expected status %d got %d", tt.status, rec.Code)
			}
			body := decodeBody[map[string]string](t, rec)
			if body["error"] != tt.message {
				t.Fatalf("expected error %q got %q", tt.message, body["error"])
			}
		})
	}
}

func TestAuthHandlerLogin(t *testing.T) {
	store := newInMemoryUserStore()
	handler := AuthHandler{Users: store, Sessions: newTestManager()}

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	store.users["user-1"] = models.User{ID: "user-1", FullName: "Login User", Email: "login@example.com", Password: string(hashed)}

	rec := httptest.NewRecorder()
	handler.Login(rec, postJSON(t, "/api/v1/auth/login", loginRequest{Email: " LOGIN@example.com", Password: "password123"}))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	resp := decodeBody[authResponse](t, rec)
	if resp.Tokens.AccessToken == "" || resp.Tokens.RefreshToken == "" {
		t.Fatalf("expected tokens to be issued, got %+v", resp.Tokens)
	}
	if strings.Contains(rec.Body.String(), string(hashed)) {
		t.Fatal("password hash leaked into response")
	}

	for _, payload := range []loginRequest{
		{Email: "login@example.com", Password: "wrong-password"},
		{Email: "unknown@example.com", Password: "password123"},
		{Email: "login@example.com", Password: ""},
	} {
		rec := httptest.NewRecorder()
		handler.Login(rec, postJSON(t, "/api/v1/auth/login", payload))
		if rec.Code != http.StatusUnauthorized && rec.Code != http.StatusBadRequest {
			t.Fatalf("expected login rejection for %+v, got %d", payload, rec.Code)
		}
	}
}

func TestAuthHandlerRateLimited(t *testing.T) {
	handler := AuthHandler{Users: newInMemoryUserStore(), Sessions: newTestManager(), Limiter: denyLimiter{}}

	rec := httptest.NewRecorder()
	handler.Login(rec, postJSON(t, "/api/v1/auth/login", loginRequest{Email: "a@example.com", Password: "x"}))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status %d got %d", http.StatusTooManyRequests, rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.SignUp(rec, postJSON(t, "/api/v1/auth/signup", signUpRequest{}))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status %d got %d", http.StatusTooManyRequests, rec.Code)
	}
}

func TestAuthHandlerRefresh(t *testing.T) {
	manager := newTestManager()
	tokens, err := manager.Issue(context.Background(), "user-123")
	if err != nil {
		t.Fatalf("issue tokens: %v", err)
	}

	handler := AuthHandler{Sessions: manager}

	rec := httptest.NewRecorder()
	handler.Refresh(rec, postJSON(t, "/api/v1/auth/refresh", refreshRequest{RefreshToken: tokens.RefreshToken}))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	resp := decodeBody[authResponse](t, rec)
	if resp.Tokens.RefreshToken == tokens.RefreshToken {
		t.Fatal("expected a new refresh token to be issued")
	}

	rec = httptest.NewRecorder()
	handler.Refresh(rec, postJSON(t, "/api/v1/auth/refresh", refreshRequest{RefreshToken: tokens.RefreshToken}))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected rotated token to be rejected with %d got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestAuthHandlerLogout(t *testing.T) {
	manager := newTestManager()
	tokens, err := manager.Issue(context.Background(), "user-123")
	if err != nil {
		t.Fatalf("issue tokens: %v", err)
	}

	handler := AuthHandler{Sessions: manager}

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.Logout(rec, postJSON(t, "/api/v1/auth/logout", refreshRequest{RefreshToken: tokens.RefreshToken}))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("logout %d: expected status %d got %d", i, http.StatusNoContent, rec.Code)
		}
	}

	if _, err := manager.Refresh(context.Background(), tokens.RefreshToken); err == nil {
		t.Fatal("expected refresh to fail after logout")
	}

	rec := httptest.NewRecorder()
	handler.Logout(rec, postJSON(t, "/api/v1/auth/logout", refreshRequest{}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestAuthHandlerMethodAndDependencies(t *testing.T) {
	handler := AuthHandler{}

	rec := httptest.NewRecorder()
	handler.Login(rec, httptest.NewRequest(http.MethodGet, "/api/v1/auth/login", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status %d got %d", http.StatusMethodNotAllowed, rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.Login(rec, postJSON(t, "/api/v1/auth/login", loginRequest{}))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d got %d", http.StatusInternalServerError, rec.Code)
	}
}

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/skillswap/backend/internal/directory"
	"github.com/skillswap/backend/internal/models"
)

func TestDirectoryHandlerList(t *testing.T) {
	handler := DirectoryHandler{Directory: directory.New(directory.DefaultCatalog()...)}

	rec := httptest.NewRecorder()
	handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/skills", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	body := decodeBody[map[string][]models.Profile](t, rec)
	skills := body["skills"]
	if len(skills) != 6 {
		t.Fatalf("expected 6 directory entries got %d", len(skills))
	}
	if skills[0].Name != "Riya" || skills[0].Role != models.RoleMentor || len(skills[0].Tags) == 0 {
		t.Fatalf("unexpected first entry %+v", skills[0])
	}
}

func TestDirectoryHandlerGetUser(t *testing.T) {
	handler := DirectoryHandler{Directory: directory.New(directory.DefaultCatalog()...)}

	rec := httptest.NewRecorder()
	handler.GetUser(rec, withPathValue(httptest.NewRequest(http.MethodGet, "/api/v1/users/3", nil), "userID", "3"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	body := decodeBody[map[string]string](t, rec)
	if body["id"] != "3" || body["name"] != "Neha" {
		t.Fatalf("unexpected user %+v", body)
	}

	rec = httptest.NewRecorder()
	handler.GetUser(rec, withPathValue(httptest.NewRequest(http.MethodGet, "/api/v1/users/42", nil), "userID", "42"))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
	body = decodeBody[map[string]string](t, rec)
	if body["error"] != "User not found" {
		t.Fatalf("unexpected error body %+v", body)
	}
}

func TestDirectoryHandlerWithoutDirectory(t *testing.T) {
	rec := httptest.NewRecorder()
	DirectoryHandler{}.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/skills", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d got %d", http.StatusInternalServerError, rec.Code)
	}
}

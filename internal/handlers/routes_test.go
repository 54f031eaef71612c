package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/skillswap/backend/internal/directory"
	"github.com/skillswap/backend/internal/middleware"
	"github.com/skillswap/backend/internal/relationships"
)

func TestRegisterRoutesEndToEnd(t *testing.T) {
	dir := directory.New(directory.DefaultCatalog()...)
	manager := newTestManager()
	sink := &eventSinkStub{}

	mux := http.NewServeMux()
	RegisterRoutes(mux, Dependencies{
		Users:         newInMemoryUserStore(),
		Sessions:      manager,
		Directory:     dir,
		Relationships: relationships.NewStore(dir),
		Events:        sink,
	})
	server := httptest.NewServer(middleware.Authenticate(manager)(mux))
	defer server.Close()

	signup := `{"fullname":"Dev Patel","email":"dev@example.com","password":"password123","confirm":"password123"}`
	resp, err := http.Post(server.URL+"/api/v1/auth/signup", "application/json", strings.NewReader(signup))
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d got %d", http.StatusCreated, resp.StatusCode)
	}
	var created authResponse
	decodeResponse(t, resp, &created)

	send := func(token, body string) int {
		req, _ := http.NewRequest(http.MethodPost, server.URL+"/api/v1/friends/request", strings.NewReader(body))
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("send request: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if code := send("", `{"to_user":"1"}`); code != http.StatusUnauthorized {
		t.Fatalf("expected anonymous request to be rejected, got %d", code)
	}
	if code := send("not-a-token", `{"to_user":"1"}`); code != http.StatusUnauthorized {
		t.Fatalf("expected invalid token to be treated as anonymous, got %d", code)
	}
	if code := send(created.Tokens.AccessToken, `{"to_user":"1"}`); code != http.StatusOK {
		t.Fatalf("expected request sent, got %d", code)
	}

	resp, err = http.Get(server.URL + "/api/v1/friends/1")
	if err != nil {
		t.Fatalf("friend data: %v", err)
	}
	var data friendDataResponse
	decodeResponse(t, resp, &data)
	if len(data.FriendRequests) != 1 || data.FriendRequests[0] != created.User.ID {
		t.Fatalf("unexpected pending requests %+v", data)
	}

	resp, err = http.Get(server.URL + "/api/v1/users/" + created.User.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	var user map[string]string
	decodeResponse(t, resp, &user)
	if user["name"] != "Dev Patel" {
		t.Fatalf("expected registered account to be resolvable, got %+v", user)
	}
}

func decodeResponse(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

package app

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/alexdossss/study-hub/internal/aigen"
)

type apiClient struct {
	t      *testing.T
	server http.Handler
}

func newAPIClient(t *testing.T, env *testEnv) *apiClient {
	t.Helper()
	return &apiClient{t: t, server: NewHTTPServer(env.svc, "*", nil, zerolog.Nop()).Handler()}
}

func (c *apiClient) do(method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	c.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.send(req)
}

func (c *apiClient) send(req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	c.t.Helper()
	rr := httptest.NewRecorder()
	c.server.ServeHTTP(rr, req)

	var payload map[string]any
	if rr.Body.Len() > 0 && rr.Header().Get("Content-Type") == "application/json" {
		if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
			c.t.Fatalf("parse response: %v body=%s", err, rr.Body.String())
		}
	}
	return rr, payload
}

func (c *apiClient) register(username string) string {
	c.t.Helper()
	rr, payload := c.do(http.MethodPost, "/api/users/register", "", map[string]any{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
		"birthday": "2001-05-06",
	})
	if rr.Code != http.StatusCreated {
		c.t.Fatalf("register %s: expected 201, got %d body=%s", username, rr.Code, rr.Body.String())
	}
	token, _ := payload["token"].(string)
	if token == "" {
		c.t.Fatalf("register %s: expected token", username)
	}
	return token
}

func TestRegisterLoginProfile(t *testing.T) {
	client := newAPIClient(t, newTestEnv(t))
	client.register("ada")

	rr, payload := client.do(http.MethodPost, "/api/users/register", "", map[string]any{
		"username": "ada2",
		"email":    "ADA@example.com",
		"password": "password123",
		"birthday": "2001-05-06",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate email, got %d", rr.Code)
	}
	if payload["error"] != "Email already registered" {
		t.Fatalf("unexpected error message: %v", payload["error"])
	}

	rr, _ = client.do(http.MethodPost, "/api/users/login", "", map[string]any{"email": "ada@example.com", "password": "wrong-password"})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", rr.Code)
	}

	rr, payload = client.do(http.MethodPost, "/api/users/login", "", map[string]any{"email": "Ada@Example.com", "password": "password123"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	token, _ := payload["token"].(string)

	rr, payload = client.do(http.MethodGet, "/api/users/profile", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	user, _ := payload["user"].(map[string]any)
	if user["username"] != "ada" {
		t.Fatalf("expected username ada, got %v", user["username"])
	}
	if _, leaked := user["passwordHash"]; leaked {
		t.Fatalf("password hash must not be exposed")
	}
}

func TestRegisterValidation(t *testing.T) {
	client := newAPIClient(t, newTestEnv(t))

	rr, payload := client.do(http.MethodPost, "/api/users/register", "", map[string]any{
		"username": "ada",
		"email":    "not-an-email",
		"password": "password123",
		"birthday": "2001-05-06",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if payload["code"] != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR, got %v", payload["code"])
	}
	details, _ := payload["details"].(map[string]any)
	if _, ok := details["email"]; !ok {
		t.Fatalf("expected email detail, got %v", payload["details"])
	}

	req := httptest.NewRequest(http.MethodPost, "/api/users/login", bytes.NewBufferString("{"))
	rr, payload = client.send(req)
	if rr.Code != http.StatusBadRequest || payload["code"] != "INVALID_BODY" {
		t.Fatalf("expected INVALID_BODY, got %d %v", rr.Code, payload)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	client := newAPIClient(t, newTestEnv(t))

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/users/profile"},
		{http.MethodGet, "/api/notes"},
		{http.MethodGet, "/api/quizzes"},
		{http.MethodPost, "/api/spaces"},
		{http.MethodGet, "/api/spaces?mine=true"},
		{http.MethodGet, "/api/study/tasks/all"},
		{http.MethodPost, "/api/pomodoro/start"},
	}
	for _, p := range paths {
		rr, _ := client.do(p.method, p.path, "", nil)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401, got %d", p.method, p.path, rr.Code)
		}
	}

	rr, _ := client.do(http.MethodGet, "/api/notes", "garbage", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for malformed token, got %d", rr.Code)
	}
}

func TestSpaceFlowOverHTTP(t *testing.T) {
	client := newAPIClient(t, newTestEnv(t))
	adminToken := client.register("ada")
	userToken := client.register("bob")

	rr, payload := client.do(http.MethodPost, "/api/spaces", adminToken, map[string]any{"title": "Physics", "isPublic": false})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	space, _ := payload["space"].(map[string]any)
	spaceID, _ := space["id"].(string)
	base := "/api/spaces/" + spaceID

	rr, payload = client.do(http.MethodGet, base, "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected public space detail, got %d", rr.Code)
	}

	rr, _ = client.do(http.MethodPost, base+"/join", userToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("join: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	_, payload = client.do(http.MethodGet, base, "", nil)
	requests, _ := payload["space"].(map[string]any)["joinRequests"].([]any)
	if len(requests) != 1 {
		t.Fatalf("expected one join request, got %v", requests)
	}
	requester, _ := requests[0].(map[string]any)["userId"].(string)

	rr, _ = client.do(http.MethodPost, base+"/join/"+requester, adminToken, map[string]any{"action": "approve"})
	if rr.Code != http.StatusOK {
		t.Fatalf("approve: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr, _ = client.do(http.MethodPost, base+"/messages", userToken, map[string]any{"text": "hi all"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("post message: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr, payload = client.do(http.MethodGet, base+"/messages?limit=5", adminToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get messages: expected 200, got %d", rr.Code)
	}
	messages, _ := payload["messages"].([]any)
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}

	rr, payload = client.do(http.MethodGet, base+"/messages?limit=abc", adminToken, nil)
	if rr.Code != http.StatusBadRequest || payload["error"] != "limit must be an integer" {
		t.Fatalf("expected limit validation error, got %d %v", rr.Code, payload)
	}

	rr, payload = client.do(http.MethodPost, base+"/share/note", userToken, map[string]any{"title": "Kinematics", "content": "v = u + at"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("share note: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr, payload = client.do(http.MethodGet, base+"/shared/items", adminToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("shared items: expected 200, got %d", rr.Code)
	}
	items, _ := payload["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected 1 shared item, got %d", len(items))
	}

	_, payload = client.do(http.MethodGet, "/api/spaces?mine=true", userToken, nil)
	mine, _ := payload["spaces"].([]any)
	if len(mine) != 1 {
		t.Fatalf("expected 1 joined space, got %d", len(mine))
	}

	rr, _ = client.do(http.MethodPost, base+"/leave", userToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("leave: expected 200, got %d", rr.Code)
	}
	rr, _ = client.do(http.MethodGet, base+"/members", userToken, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("members after leave: expected 403, got %d", rr.Code)
	}
}

func TestUnknownRoutes(t *testing.T) {
	client := newAPIClient(t, newTestEnv(t))
	token := client.register("ada")

	for _, path := range []string{"/nope", "/api/unknown", "/api/spaces/x/y/z/w"} {
		rr, _ := client.do(http.MethodGet, path, token, nil)
		if rr.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, rr.Code)
		}
	}

	rr, _ := client.do(http.MethodDelete, "/api/users/profile", token, nil)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rr.Code)
	}
}

func TestGenerateFlashcardsFromUploadedFile(t *testing.T) {
	env := newTestEnv(t)
	client := newAPIClient(t, env)
	token := client.register("ada")

	var gotSource string
	env.generator.flashcardsFn = func(_ context.Context, source string) (aigen.FlashcardResult, error) {
		gotSource = source
		return aigen.FlashcardResult{Cards: []aigen.Card{{Question: "q", Answer: "a"}}, ParseMode: aigen.ParseStrict}, nil
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "notes.md")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = part.Write([]byte("# Osmosis\nWater moves across membranes."))
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/ai/generate-flashcards", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rr, payload := client.send(req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if gotSource != "# Osmosis\nWater moves across membranes." {
		t.Fatalf("unexpected source text %q", gotSource)
	}
	cards, _ := payload["flashcards"].([]any)
	if len(cards) != 1 {
		t.Fatalf("expected 1 card, got %v", payload["flashcards"])
	}
}

package middleware

import (
	"encoding/base64"
	"testing"

	"github.com/sleipnir-web/sleipnir/request"
	"github.com/sleipnir-web/sleipnir/response"
	"github.com/sleipnir-web/sleipnir/session"
)

func runAuthed(t *testing.T, authHeader string) *response.Response {
	t.Helper()

	mw := BasicAuth([]Account{{Username: "user", Password: "pass"}})
	handler := mw(func(r *request.Request, w *response.Response, s *session.Session) {
		w.Text("granted")
	})

	req := request.New(request.GET, "/")
	if authHeader != "" {
		req.Headers.Add("Authorization", authHeader)
	}

	resp := response.New()
	t.Cleanup(resp.Release)
	handler(req, resp, nil)
	return resp
}

func TestBasicAuth_NoHeader(t *testing.T) {
	resp := runAuthed(t, "")

	if resp.StatusCode != response.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if got := resp.Headers.Get("www-authenticate"); got == "" {
		t.Fatalf("expected www-authenticate header to be set")
	}
}

func TestBasicAuth_InvalidBase64(t *testing.T) {
	resp := runAuthed(t, "Basic not-base64!!")

	if resp.StatusCode != response.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestBasicAuth_Malformed_NoColon(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("useronly"))
	resp := runAuthed(t, "Basic "+payload)

	if resp.StatusCode != response.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestBasicAuth_WrongPassword(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("user:wrong"))
	resp := runAuthed(t, "Basic "+payload)

	if resp.StatusCode != response.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestBasicAuth_Success(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("user:pass"))
	resp := runAuthed(t, "Basic "+payload)

	if resp.StatusCode != response.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if string(resp.BodyBytes()) != "granted" {
		t.Fatalf("expected wrapped handler to run, got %q", resp.BodyBytes())
	}
}

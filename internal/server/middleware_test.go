package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ternarybob/arbor"
)

func authTestServer(token string) *Server {
	return &Server{
		logger:    arbor.NewLogger(),
		authToken: token,
	}
}

func okHandler() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}), &called
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	s := authTestServer("secret-token")
	next, called := okHandler()

	req := httptest.NewRequest("POST", "/api/scrape", nil)
	rec := httptest.NewRecorder()
	s.authMiddleware(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
	if *called {
		t.Error("Handler must not run without credentials")
	}
}

func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	s := authTestServer("secret-token")

	headers := []string{
		"secret-token",        // no scheme
		"Basic secret-token",  // wrong scheme
		"Bearer",              // scheme without token
		"Bearer ",             // empty token
		"bearer secret-token", // scheme is case sensitive
	}

	for _, header := range headers {
		next, called := okHandler()
		req := httptest.NewRequest("POST", "/api/scrape", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		s.authMiddleware(next).ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("Header %q: expected status 401, got %d", header, rec.Code)
		}
		if *called {
			t.Errorf("Header %q: handler must not run", header)
		}
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	s := authTestServer("secret-token")
	next, called := okHandler()

	req := httptest.NewRequest("GET", "/api/scrape/job-1/status/", nil)
	req.Header.Set("Authorization", "Bearer not-the-token")
	rec := httptest.NewRecorder()
	s.authMiddleware(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", rec.Code)
	}
	if *called {
		t.Error("Handler must not run with a wrong token")
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	s := authTestServer("secret-token")
	next, called := okHandler()

	req := httptest.NewRequest("POST", "/api/scrape", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	rec := httptest.NewRecorder()
	s.authMiddleware(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if !*called {
		t.Error("Handler should run with a valid token")
	}
}

func TestAuthMiddleware_HealthAndVersionStayOpen(t *testing.T) {
	s := authTestServer("secret-token")

	for _, path := range []string{"/health", "/api/version"} {
		next, called := okHandler()
		req := httptest.NewRequest("GET", path, nil)
		rec := httptest.NewRecorder()
		s.authMiddleware(next).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected status 200, got %d", path, rec.Code)
		}
		if !*called {
			t.Errorf("%s: probe endpoints never require auth", path)
		}
	}
}

func TestAuthMiddleware_DisabledWithoutToken(t *testing.T) {
	s := authTestServer("")
	next, called := okHandler()

	req := httptest.NewRequest("POST", "/api/scrape", nil)
	rec := httptest.NewRecorder()
	s.authMiddleware(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if !*called {
		t.Error("Auth is a no-op when no token is configured")
	}
}

func TestCorsMiddleware_PreflightShortCircuits(t *testing.T) {
	s := authTestServer("")
	next, called := okHandler()

	req := httptest.NewRequest("OPTIONS", "/api/sources", nil)
	rec := httptest.NewRecorder()
	s.corsMiddleware(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if *called {
		t.Error("Preflight requests stop at the CORS middleware")
	}
	if origin := rec.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Errorf("Expected allow-all origin, got %q", origin)
	}
}

func TestRecoveryMiddleware_ConvertsPanicTo500(t *testing.T) {
	s := authTestServer("")
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	req := httptest.NewRequest("GET", "/api/dashboard", nil)
	rec := httptest.NewRecorder()
	s.recoveryMiddleware(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", rec.Code)
	}
}

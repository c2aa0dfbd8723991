package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, UserIDFromContext(c.Request().Context()))
}

func TestMiddleware_MissingToken(t *testing.T) {
	s := NewSessions(testSecret, time.Hour)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := Middleware(s)(okHandler)(c)
	if err == nil {
		t.Fatal("expected error for missing token")
	}
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestMiddleware_BearerToken(t *testing.T) {
	s := NewSessions(testSecret, time.Hour)
	token, _ := s.Issue("user-9", "doctor")

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := Middleware(s)(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Body.String() != "user-9" {
		t.Errorf("expected user id on context, got %q", rec.Body.String())
	}
}

func TestMiddleware_CookieToken(t *testing.T) {
	s := NewSessions(testSecret, time.Hour)
	token, _ := s.Issue("user-3", "patient")

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := Middleware(s)(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Body.String() != "user-3" {
		t.Errorf("expected user id on context, got %q", rec.Body.String())
	}
}

func TestDevMiddleware_UnauthenticatedRequest(t *testing.T) {
	s := NewSessions(testSecret, time.Hour)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := DevMiddleware(s)(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Body.String() != DevUserID {
		t.Errorf("expected dev user id on context, got %q", rec.Body.String())
	}
	// Handlers parse the context user id as a UUID, so the dev id has to be one.
	if _, err := uuid.Parse(DevUserID); err != nil {
		t.Errorf("dev user id is not a uuid: %v", err)
	}
}

func TestDevMiddleware_HonorsRealToken(t *testing.T) {
	s := NewSessions(testSecret, time.Hour)
	token, _ := s.Issue("user-5", "patient")

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := DevMiddleware(s)(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Body.String() != "user-5" {
		t.Errorf("expected token user id, got %q", rec.Body.String())
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUser(req.Context(), "u1", "patient"))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := RequireRole("patient")(okHandler)(c); err != nil {
		t.Errorf("unexpected error for matching role: %v", err)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2 = req2.WithContext(WithUser(req2.Context(), "u1", "patient"))
	c2 := e.NewContext(req2, httptest.NewRecorder())

	err := RequireRole("doctor")(okHandler)(c2)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Errorf("expected 403 for role mismatch, got %v", err)
	}
}

func TestRequireSelf(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUser(req.Context(), "u1", "patient"))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("u1")

	if err := RequireSelf("id")(okHandler)(c); err != nil {
		t.Errorf("unexpected error for self access: %v", err)
	}

	c.SetParamValues("u2")
	err := RequireSelf("id")(okHandler)(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Errorf("expected 403 for other user's record, got %v", err)
	}
}

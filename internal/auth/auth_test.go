package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	token, err := svc.IssueToken("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	userID, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if userID != "user-1" {
		t.Errorf("expected user-1, got %q", userID)
	}
}

func TestParseTokenRejections(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	otherSecret, _ := NewService("other-secret", time.Hour).IssueToken("user-1")

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "user-1",
		"type":    "access",
		"exp":     time.Now().Add(-time.Minute).Unix(),
		"iat":     time.Now().Add(-time.Hour).Unix(),
	})
	expiredString, _ := expired.SignedString([]byte("test-secret"))

	wrongType := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "user-1",
		"type":    "refresh",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	wrongTypeString, _ := wrongType.SignedString([]byte("test-secret"))

	noUser := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"type": "access",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	noUserString, _ := noUser.SignedString([]byte("test-secret"))

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"empty", ""},
		{"wrong secret", otherSecret},
		{"expired", expiredString},
		{"non-access type", wrongTypeString},
		{"missing user id", noUserString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.ParseToken(tt.token); err != ErrInvalidToken {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func middlewareRequest(t *testing.T, svc *Service, authHeader string, skipper func(echo.Context) bool) (*httptest.ResponseRecorder, error) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Middleware(svc, skipper)(func(c echo.Context) error {
		return c.String(http.StatusOK, UserID(c))
	})
	return rec, handler(c)
}

func TestMiddlewareAcceptsBearerToken(t *testing.T) {
	svc := NewService("test-secret", time.Hour)
	token, _ := svc.IssueToken("user-7")

	rec, err := middlewareRequest(t, svc, "Bearer "+token, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Body.String() != "user-7" {
		t.Errorf("user id not stored in context, got %q", rec.Body.String())
	}
}

func TestMiddlewareRejections(t *testing.T) {
	svc := NewService("test-secret", time.Hour)
	token, _ := svc.IssueToken("user-7")

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic dXNlcjpwYXNz"},
		{"bearer without token", "Bearer"},
		{"invalid token", "Bearer not-a-token"},
		{"lowercase scheme", "bearer " + token},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := middlewareRequest(t, svc, tt.header, nil)
			httpErr, ok := err.(*echo.HTTPError)
			if !ok {
				t.Fatalf("expected *echo.HTTPError, got %v", err)
			}
			if httpErr.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", httpErr.Code)
			}
		})
	}
}

func TestMiddlewareSkipper(t *testing.T) {
	svc := NewService("test-secret", time.Hour)
	skipper := func(c echo.Context) bool {
		return strings.HasSuffix(c.Request().URL.Path, "/reports")
	}

	if _, err := middlewareRequest(t, svc, "", skipper); err != nil {
		t.Errorf("skipped path should not require a token, got %v", err)
	}
}

// handlers_auth.go - Login, registration and token handlers
package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/valuation-console/backend/internal/auth"
	"github.com/valuation-console/backend/internal/models"
	"github.com/valuation-console/backend/internal/users"
	"github.com/valuation-console/backend/internal/validate"
)

// AuthHandler serves the auth endpoints
type AuthHandler struct {
	users *users.Store
	auth  *auth.Service
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(userStore *users.Store, authSvc *auth.Service) *AuthHandler {
	return &AuthHandler{
		users: userStore,
		auth:  authSvc,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type userPayload struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type loginResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        userPayload `json:"user"`
}

// HandleLogin checks credentials and issues a bearer token
func (h *AuthHandler) HandleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.Email == "" || req.Password == "" {
		return NewValidationError("email")
	}

	user, err := h.users.Authenticate(req.Email, req.Password)
	if err != nil {
		return NewUnauthorizedError("invalid email or password")
	}

	token, err := h.auth.IssueToken(user.ID)
	if err != nil {
		return NewInternalError("failed to issue token", err)
	}

	return c.JSON(http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        toUserPayload(user),
	})
}

// HandleRegister creates a viewer account and logs it in
func (h *AuthHandler) HandleRegister(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	if !validate.IsValidEmail(req.Email) {
		return NewValidationError("email")
	}
	if !validate.IsNotEmpty(req.Name) {
		return NewValidationError("name")
	}
	if problems := validate.ValidatePassword(req.Password); len(problems) > 0 {
		return NewBadRequestError(strings.Join(problems, "; "), nil)
	}

	user, err := h.users.Create(req.Email, req.Name, models.RoleViewer, req.Password)
	if err != nil {
		if err == users.ErrEmailTaken {
			return NewConflictError("email already in use")
		}
		return NewInternalError("failed to create user", err)
	}

	token, err := h.auth.IssueToken(user.ID)
	if err != nil {
		return NewInternalError("failed to issue token", err)
	}

	return c.JSON(http.StatusCreated, loginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        toUserPayload(user),
	})
}

// HandleLogout acknowledges logout. Tokens are stateless; the client
// discards its copy.
func (h *AuthHandler) HandleLogout(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

// HandleRefresh issues a fresh token for the authenticated user
func (h *AuthHandler) HandleRefresh(c echo.Context) error {
	userID := auth.UserID(c)
	if userID == "" {
		return NewUnauthorizedError("authentication required")
	}
	if _, err := h.users.Get(userID); err != nil {
		return NewUnauthorizedError("account no longer exists")
	}

	token, err := h.auth.IssueToken(userID)
	if err != nil {
		return NewInternalError("failed to issue token", err)
	}
	return c.JSON(http.StatusOK, map[string]string{"access_token": token})
}

// HandleMe returns the authenticated user
func (h *AuthHandler) HandleMe(c echo.Context) error {
	userID := auth.UserID(c)
	user, err := h.users.Get(userID)
	if err != nil {
		return NewUnauthorizedError("account no longer exists")
	}
	return c.JSON(http.StatusOK, toUserPayload(user))
}

func toUserPayload(u *models.User) userPayload {
	return userPayload{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Role:  u.Role,
	}
}

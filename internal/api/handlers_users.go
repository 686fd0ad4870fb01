// handlers_users.go - User management handlers
package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/valuation-console/backend/internal/models"
	"github.com/valuation-console/backend/internal/users"
	"github.com/valuation-console/backend/internal/validate"
)

// UsersHandler serves the user CRUD endpoints
type UsersHandler struct {
	users *users.Store
}

// NewUsersHandler creates a new users handler
func NewUsersHandler(store *users.Store) *UsersHandler {
	return &UsersHandler{users: store}
}

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type updateUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type usersListResponse struct {
	Users   []*models.User `json:"users"`
	Total   int            `json:"total"`
	Page    int            `json:"page"`
	PerPage int            `json:"per_page"`
}

// HandleListUsers returns a paginated user list
func (h *UsersHandler) HandleListUsers(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	perPage, _ := strconv.Atoi(c.QueryParam("per_page"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	list, total := h.users.List(page, perPage)
	return c.JSON(http.StatusOK, usersListResponse{
		Users:   list,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	})
}

// HandleCreateUser creates a user with an explicit role
func (h *UsersHandler) HandleCreateUser(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	if !validate.IsValidEmail(req.Email) {
		return NewValidationError("email")
	}
	if !validate.IsNotEmpty(req.Name) {
		return NewValidationError("name")
	}
	if !isKnownRole(req.Role) {
		return NewValidationError("role")
	}
	if problems := validate.ValidatePassword(req.Password); len(problems) > 0 {
		return NewBadRequestError(strings.Join(problems, "; "), nil)
	}

	user, err := h.users.Create(req.Email, req.Name, req.Role, req.Password)
	if err != nil {
		if err == users.ErrEmailTaken {
			return NewConflictError("email already in use")
		}
		return NewInternalError("failed to create user", err)
	}
	return c.JSON(http.StatusCreated, user)
}

// HandleGetUser returns one user
func (h *UsersHandler) HandleGetUser(c echo.Context) error {
	id := c.Param("id")
	user, err := h.users.Get(id)
	if err != nil {
		return NewNotFoundError("user", id)
	}
	return c.JSON(http.StatusOK, user)
}

// HandleUpdateUser modifies email, name or role
func (h *UsersHandler) HandleUpdateUser(c echo.Context) error {
	id := c.Param("id")

	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	if req.Email != "" && !validate.IsValidEmail(req.Email) {
		return NewValidationError("email")
	}
	if req.Role != "" && !isKnownRole(req.Role) {
		return NewValidationError("role")
	}

	user, err := h.users.Update(id, req.Email, req.Name, req.Role)
	if err != nil {
		switch err {
		case users.ErrNotFound:
			return NewNotFoundError("user", id)
		case users.ErrEmailTaken:
			return NewConflictError("email already in use")
		}
		return NewInternalError("failed to update user", err)
	}
	return c.JSON(http.StatusOK, user)
}

// HandleDeleteUser removes a user. Confirmation is the client's concern.
func (h *UsersHandler) HandleDeleteUser(c echo.Context) error {
	id := c.Param("id")
	if err := h.users.Delete(id); err != nil {
		return NewNotFoundError("user", id)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleListRoles returns the assignable roles
func (h *UsersHandler) HandleListRoles(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string][]string{"roles": models.Roles})
}

func isKnownRole(role string) bool {
	for _, r := range models.Roles {
		if role == r {
			return true
		}
	}
	return false
}

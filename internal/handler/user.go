package handler

import (
	"github.com/kterra/authbridge/internal/middleware"
	"github.com/kterra/authbridge/internal/repository"
	"github.com/kterra/authbridge/internal/server"
	"github.com/labstack/echo/v4"
)

// UsersHandler exposes profile endpoints for the authenticated user.
type UsersHandler struct {
	Handler
	repos *repository.Repositories
}

// NewUsersHandler constructs a UsersHandler.
func NewUsersHandler(s *server.Server, repos *repository.Repositories) *UsersHandler {
	return &UsersHandler{
		Handler: NewHandler(s),
		repos:   repos,
	}
}

// UpdateProfileRequest is the payload for PUT /api/v1/users/me.
type UpdateProfileRequest struct {
	FirstName string `json:"first_name" validate:"required,min=1,max=100"`
}

func (r *UpdateProfileRequest) Validate() error {
	return validate.Struct(r)
}

// Me handles GET /api/v1/users/me: the profile behind the presented
// credentials. Works identically under JWT and Basic auth, since both
// middlewares store user_id the same way.
func (h *UsersHandler) Me(c echo.Context, req *EmptyRequest) (UserResponse, error) {
	user, err := h.repos.Users.GetByID(c.Request().Context(), middleware.GetUserID(c))
	if err != nil {
		return UserResponse{}, err
	}
	return NewUserResponse(user), nil
}

// ListUsersRequest is the payload for GET /admin/users.
type ListUsersRequest struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=500"`
}

func (r *ListUsersRequest) Validate() error {
	return validate.Struct(r)
}

// UsersListResponse wraps the admin listing payload.
type UsersListResponse struct {
	Users []UserResponse `json:"users"`
	Count int            `json:"count"`
}

// ListUsers handles GET /admin/users. Only reachable behind Basic auth
// plus the admin role check.
func (h *UsersHandler) ListUsers(c echo.Context, req *ListUsersRequest) (UsersListResponse, error) {
	limit := req.Limit
	if limit == 0 {
		limit = 100
	}

	users, err := h.repos.Users.List(c.Request().Context(), limit)
	if err != nil {
		return UsersListResponse{}, err
	}

	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserResponse(u))
	}
	return UsersListResponse{Users: out, Count: len(out)}, nil
}

// UpdateMe handles PUT /api/v1/users/me.
func (h *UsersHandler) UpdateMe(c echo.Context, req *UpdateProfileRequest) (UserResponse, error) {
	user, err := h.repos.Users.UpdateProfile(c.Request().Context(), middleware.GetUserID(c), req.FirstName)
	if err != nil {
		return UserResponse{}, err
	}
	return NewUserResponse(user), nil
}

package handler

import (
	"time"

	"github.com/kterra/authbridge/internal/middleware"
	"github.com/kterra/authbridge/internal/repository"
	"github.com/kterra/authbridge/internal/server"
	"github.com/kterra/authbridge/internal/service"
	"github.com/kterra/authbridge/internal/token"
	"github.com/labstack/echo/v4"
)

// AuthHandler exposes the authentication endpoints: register, login,
// token refresh, and logout.
type AuthHandler struct {
	Handler
	auth *service.AuthService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(s *server.Server, auth *service.AuthService) *AuthHandler {
	return &AuthHandler{
		Handler: NewHandler(s),
		auth:    auth,
	}
}

// --- Request/response types -------------------------------------------------

// RegisterRequest is the payload for POST /api/v1/auth/register.
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"first_name" validate:"required,min=1,max=100"`
}

// Validate applies the struct tags. The 72-char password cap is bcrypt's
// input limit; longer inputs would be silently truncated by the hash.
func (r *RegisterRequest) Validate() error {
	return validate.Struct(r)
}

// LoginRequest is the payload for POST /api/v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Validate() error {
	return validate.Struct(r)
}

// RefreshRequest is the payload for POST /api/v1/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (r *RefreshRequest) Validate() error {
	return validate.Struct(r)
}

// LogoutRequest is the payload for POST /api/v1/auth/logout. The refresh
// token is optional; when present its server-side record is deleted too.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (r *LogoutRequest) Validate() error {
	return validate.Struct(r)
}

// UserResponse is the public view of a user. It never carries the
// password hash.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserResponse maps a repository user onto the public view.
func NewUserResponse(u *repository.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// LoginResponse carries the issued token pair plus the user profile so
// clients do not need a follow-up /users/me call.
type LoginResponse struct {
	User   UserResponse `json:"user"`
	Tokens *token.Pair  `json:"tokens"`
}

// --- Endpoints --------------------------------------------------------------

// Register handles POST /api/v1/auth/register. Returns 201 with the
// created user; duplicate emails surface as a 400 from the sqlerr layer.
func (h *AuthHandler) Register(c echo.Context, req *RegisterRequest) (UserResponse, error) {
	user, err := h.auth.Register(c.Request().Context(), req.Email, req.Password, req.FirstName)
	if err != nil {
		return UserResponse{}, err
	}
	return NewUserResponse(user), nil
}

// Login handles POST /api/v1/auth/login. Returns 200 with tokens and
// profile, or a generic 401.
func (h *AuthHandler) Login(c echo.Context, req *LoginRequest) (*LoginResponse, error) {
	pair, user, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{
		User:   NewUserResponse(user),
		Tokens: pair,
	}, nil
}

// Refresh handles POST /api/v1/auth/refresh. The presented refresh token
// is consumed; the response carries a brand-new pair.
func (h *AuthHandler) Refresh(c echo.Context, req *RefreshRequest) (*token.Pair, error) {
	return h.auth.Refresh(c.Request().Context(), req.RefreshToken)
}

// Logout handles POST /api/v1/auth/logout. Requires a valid bearer
// token; revokes its jti and, when provided, the refresh token.
func (h *AuthHandler) Logout(c echo.Context, req *LogoutRequest) error {
	claims := middleware.GetClaims(c)
	return h.auth.Logout(c.Request().Context(), claims, req.RefreshToken)
}

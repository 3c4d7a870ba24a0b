package service

import (
	"context"
	"errors"

	"github.com/kterra/authbridge/internal/errs"
	"github.com/kterra/authbridge/internal/lib/job"
	"github.com/kterra/authbridge/internal/middleware"
	"github.com/kterra/authbridge/internal/repository"
	"github.com/kterra/authbridge/internal/server"
	"github.com/kterra/authbridge/internal/token"
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost trades login latency for brute-force resistance. 12 keeps
// a comparison in the tens of milliseconds on current hardware, which is
// also why Basic auth (one comparison per request) is the expensive
// scheme here.
const bcryptCost = 12

// AuthService implements registration, login, token refresh, logout,
// and the per-request credential check behind HTTP Basic.
type AuthService struct {
	server *server.Server
	repos  *repository.Repositories
	tokens *token.Service
}

// NewAuthService constructs an AuthService.
func NewAuthService(s *server.Server, repos *repository.Repositories, tokens *token.Service) *AuthService {
	return &AuthService{
		server: s,
		repos:  repos,
		tokens: tokens,
	}
}

// compile-time check: AuthService backs the Basic auth middleware.
var _ middleware.CredentialVerifier = (*AuthService)(nil)

// Register creates a new account.
//
// Flow:
//   - bcrypt-hash the password
//   - insert the user (duplicate email surfaces via sqlerr as a 400)
//   - enqueue the welcome email; a queue failure is logged, not returned,
//     because the account exists either way
func (a *AuthService) Register(ctx context.Context, email, password, firstName string) (*repository.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, err
	}

	user, err := a.repos.Users.Create(ctx, email, string(hash), firstName)
	if err != nil {
		return nil, err
	}

	if a.server.Config.Integration.ResendAPIKey != "" {
		task, err := job.NewWelcomeEmailTask(user.Email, user.FirstName)
		if err == nil {
			_, err = a.server.Job.Client.Enqueue(task)
		}
		if err != nil {
			a.server.Logger.Error().
				Err(err).
				Str("user_id", user.ID).
				Msg("failed to enqueue welcome email")
		}
	}

	return user, nil
}

// Login verifies the password and issues a token pair.
//
// Lookup failure and password mismatch return the same generic 401 so
// the endpoint cannot be used to probe which emails exist.
func (a *AuthService) Login(ctx context.Context, email, password string) (*token.Pair, *repository.User, error) {
	user, err := a.repos.Users.GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, errs.NewUnauthorizedError("Invalid email or password", true)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, errs.NewUnauthorizedError("Invalid email or password", true)
	}

	pair, err := a.tokens.Issue(ctx, user.ID, user.Role)
	if err != nil {
		return nil, nil, err
	}

	return pair, user, nil
}

// Refresh rotates a refresh token into a fresh pair.
func (a *AuthService) Refresh(ctx context.Context, refreshToken string) (*token.Pair, error) {
	pair, err := a.tokens.Refresh(ctx, refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrRefreshUnknown):
			return nil, errs.NewUnauthorizedError("Invalid refresh token", true)
		case errors.Is(err, token.ErrStoreUnavailable):
			return nil, errs.NewInternalServerError()
		default:
			return nil, err
		}
	}
	return pair, nil
}

// Logout revokes the current session. Revocation needs Redis; when it is
// down the client still drops its tokens, so the error is logged and a
// success is reported.
func (a *AuthService) Logout(ctx context.Context, claims *token.Claims, refreshToken string) error {
	if err := a.tokens.Revoke(ctx, claims, refreshToken); err != nil {
		a.server.Logger.Error().Err(err).Msg("failed to revoke session")
	}
	return nil
}

// VerifyCredentials checks an email/password pair for the Basic auth
// middleware. Same generic failure for unknown email and wrong password.
func (a *AuthService) VerifyCredentials(ctx context.Context, email, password string) (string, string, error) {
	user, err := a.repos.Users.GetByEmail(ctx, email)
	if err != nil {
		return "", "", errors.New("unknown credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", "", errors.New("unknown credentials")
	}

	return user.ID, user.Role, nil
}

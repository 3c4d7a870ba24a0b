// Package token issues and verifies the credentials behind the API's
// bearer authentication scheme.
//
// Access tokens are short-lived HS256 JWTs carrying the user identity.
// Refresh tokens are opaque random strings stored server-side in Redis
// and rotated on every use. Revocation is handled with a Redis denylist
// keyed by the access token's jti claim.
package token

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/kterra/authbridge/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Error classification for strict HTTP 401 mapping in the auth middleware.
var (
	ErrTokenMissing   = errors.New("token missing")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenInvalid   = errors.New("token invalid")
	ErrTokenRevoked   = errors.New("token revoked")

	// ErrRefreshUnknown covers refresh tokens that were never issued,
	// already rotated, or revoked.
	ErrRefreshUnknown = errors.New("refresh token unknown")

	// ErrStoreUnavailable is returned when an operation requires Redis
	// and Redis cannot be reached.
	ErrStoreUnavailable = errors.New("token store unavailable")
)

// Redis key prefixes. Refresh tokens expire via key TTL; the per-user
// index is a plain set and is pruned by the periodic sweep job.
const (
	refreshKeyPrefix  = "auth:refresh:"
	denylistKeyPrefix = "auth:denylist:"
	userIndexPrefix   = "auth:user_tokens:"
)

// clockSkew is the tolerance applied to exp/nbf validation, so small
// clock drift between services does not reject fresh tokens.
const clockSkew = 30 * time.Second

// Claims is the JWT payload for access tokens. Subject holds the user id.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Pair is the credential set returned to clients on login and refresh.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// refreshRecord is the JSON value stored under each refresh token key.
type refreshRecord struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Service issues, verifies, refreshes, and revokes tokens.
type Service struct {
	secret     []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
	redis      *redis.Client
	logger     *zerolog.Logger
}

// NewService constructs a token Service from auth config.
//
// redisClient may be nil (or unreachable): issuing and verifying access
// tokens still works, while refresh and revocation, which need
// server-side state, return ErrStoreUnavailable.
func NewService(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) *Service {
	return &Service{
		secret:     []byte(cfg.Auth.JWTSecret),
		issuer:     cfg.Auth.JWTIssuer,
		audience:   cfg.Auth.JWTAudience,
		accessTTL:  cfg.Auth.AccessTokenTTL,
		refreshTTL: cfg.Auth.RefreshTokenTTL,
		redis:      redisClient,
		logger:     logger,
	}
}

// Issue creates a fresh access/refresh pair for the given user.
//
// The refresh token is only returned when Redis accepted it; an access
// token alone is still a valid outcome if Redis is down, so callers get
// a Pair with an empty RefreshToken rather than an error.
func (s *Service) Issue(ctx context.Context, userID, role string) (*Pair, error) {
	now := time.Now()

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			Subject:   userID,
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
		Role: role,
	}

	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("signing access token: %w", err)
	}

	pair := &Pair{
		AccessToken: access,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.accessTTL.Seconds()),
	}

	refresh, err := s.storeRefreshToken(ctx, userID, role)
	if err != nil {
		// Refresh is a convenience on top of the access token; losing it
		// degrades the session to access-TTL length instead of failing
		// the login.
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("could not store refresh token")
	} else {
		pair.RefreshToken = refresh
	}

	return pair, nil
}

// Verify parses and validates an access token string.
//
// Enforced rules, in order:
//   - signature first, HS256 only (alg "none" and friends are rejected)
//   - exp, iat and sub required, iss/aud must match, 30s skew tolerance
//   - jti must not be on the revocation denylist (when Redis is reachable)
func (s *Service) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrTokenMissing
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(clockSkew),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		default:
			return nil, ErrTokenInvalid
		}
	}

	// The parser only validates iat when the claim is present. Every
	// token minted here carries iat and a subject, so absence means the
	// token did not come from Issue.
	if claims.IssuedAt == nil || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}

	// Denylist check is best-effort: when Redis is down the token is
	// accepted on signature+claims alone, matching the server's
	// "continue without Redis" startup posture.
	if s.redis != nil && claims.ID != "" {
		n, err := s.redis.Exists(ctx, denylistKeyPrefix+claims.ID).Result()
		if err == nil && n > 0 {
			return nil, ErrTokenRevoked
		}
	}

	return claims, nil
}

// Refresh rotates a refresh token: the presented token is consumed and a
// brand-new pair is issued. A token that cannot be found was never
// issued, already used, or revoked; all collapse into ErrRefreshUnknown
// so callers cannot distinguish replay from typo.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Pair, error) {
	if s.redis == nil {
		return nil, ErrStoreUnavailable
	}

	key := refreshKeyPrefix + refreshToken

	raw, err := s.redis.GetDel(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRefreshUnknown
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var rec refreshRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, ErrRefreshUnknown
	}

	s.redis.SRem(ctx, userIndexPrefix+rec.UserID, refreshToken)

	return s.Issue(ctx, rec.UserID, rec.Role)
}

// Revoke terminates a session: the refresh token is deleted and the
// access token's jti is denylisted for the remainder of its lifetime.
func (s *Service) Revoke(ctx context.Context, claims *Claims, refreshToken string) error {
	if s.redis == nil {
		return ErrStoreUnavailable
	}

	if refreshToken != "" {
		s.redis.Del(ctx, refreshKeyPrefix+refreshToken)
		if claims != nil {
			s.redis.SRem(ctx, userIndexPrefix+claims.Subject, refreshToken)
		}
	}

	if claims != nil && claims.ID != "" && claims.ExpiresAt != nil {
		// Keep the denylist entry only as long as the token could still
		// be presented.
		ttl := time.Until(claims.ExpiresAt.Time) + clockSkew
		if ttl > 0 {
			if err := s.redis.Set(ctx, denylistKeyPrefix+claims.ID, "1", ttl).Err(); err != nil {
				return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
			}
		}
	}

	return nil
}

// SweepUserIndexes removes index entries whose refresh token key has
// already expired. Refresh tokens themselves expire via key TTL; the
// per-user sets do not, so the periodic sweep job calls this.
//
// Returns the number of pruned entries.
func (s *Service) SweepUserIndexes(ctx context.Context) (int, error) {
	if s.redis == nil {
		return 0, ErrStoreUnavailable
	}

	pruned := 0

	iter := s.redis.Scan(ctx, 0, userIndexPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		indexKey := iter.Val()

		tokens, err := s.redis.SMembers(ctx, indexKey).Result()
		if err != nil {
			continue
		}

		for _, tok := range tokens {
			n, err := s.redis.Exists(ctx, refreshKeyPrefix+tok).Result()
			if err == nil && n == 0 {
				if s.redis.SRem(ctx, indexKey, tok).Err() == nil {
					pruned++
				}
			}
		}
	}
	if err := iter.Err(); err != nil {
		return pruned, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return pruned, nil
}

// storeRefreshToken generates an opaque refresh token and records it in
// Redis with the configured TTL, indexed per user.
func (s *Service) storeRefreshToken(ctx context.Context, userID, role string) (string, error) {
	if s.redis == nil {
		return "", ErrStoreUnavailable
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	tokenValue := base64.RawURLEncoding.EncodeToString(buf)

	raw, err := json.Marshal(refreshRecord{UserID: userID, Role: role})
	if err != nil {
		return "", err
	}

	if err := s.redis.Set(ctx, refreshKeyPrefix+tokenValue, raw, s.refreshTTL).Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	s.redis.SAdd(ctx, userIndexPrefix+userID, tokenValue)

	return tokenValue, nil
}

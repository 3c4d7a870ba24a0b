package token

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/kterra/authbridge/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestService(t *testing.T, accessTTL time.Duration) *Service {
	t.Helper()

	nop := zerolog.Nop()
	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:       testSecret,
			JWTIssuer:       "authbridge",
			JWTAudience:     "authbridge-api",
			AccessTokenTTL:  accessTTL,
			RefreshTokenTTL: time.Hour,
		},
	}

	// nil redis: access tokens work, refresh/revocation degrade.
	return NewService(cfg, nil, &nop)
}

// newRedisTestService backs the service with an in-process Redis so the
// refresh rotation and denylist paths run against real commands.
func newRedisTestService(t *testing.T) (*Service, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	nop := zerolog.Nop()
	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:       testSecret,
			JWTIssuer:       "authbridge",
			JWTAudience:     "authbridge-api",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: time.Hour,
		},
	}

	return NewService(cfg, client, &nop), mr
}

func TestIssueAndVerify(t *testing.T) {
	svc := newTestService(t, 15*time.Minute)
	ctx := context.Background()

	pair, err := svc.Issue(ctx, "user-123", "member")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, int64(900), pair.ExpiresIn)

	// Without Redis there is no refresh token to hand out.
	assert.Empty(t, pair.RefreshToken)

	claims, err := svc.Verify(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "member", claims.Role)
	assert.Equal(t, "authbridge", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestVerifyRejectsEmptyToken(t *testing.T) {
	svc := newTestService(t, 15*time.Minute)

	_, err := svc.Verify(context.Background(), "")
	assert.ErrorIs(t, err, ErrTokenMissing)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc := newTestService(t, 15*time.Minute)

	_, err := svc.Verify(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	svc := newTestService(t, 15*time.Minute)

	// Expired beyond the 30s skew allowance.
	now := time.Now().Add(-10 * time.Minute)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "authbridge",
			Audience:  jwt.ClaimStrings{"authbridge-api"},
			Subject:   "user-123",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		},
		Role: "member",
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), tokenString)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyToleratesSmallClockSkew(t *testing.T) {
	svc := newTestService(t, 15*time.Minute)

	// Expired 10s ago: inside the 30s leeway, should still verify.
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "authbridge",
			Audience:  jwt.ClaimStrings{"authbridge-api"},
			Subject:   "user-123",
			IssuedAt:  jwt.NewNumericDate(now.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-10 * time.Second)),
		},
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), tokenString)
	assert.NoError(t, err)
}

func TestVerifyRejectsWrongSigningMethod(t *testing.T) {
	svc := newTestService(t, 15*time.Minute)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "authbridge",
			Audience:  jwt.ClaimStrings{"authbridge-api"},
			Subject:   "user-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	// HS512 with the right secret still fails: only HS256 is accepted.
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), tokenString)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRejectsUnsignedToken(t *testing.T) {
	svc := newTestService(t, 15*time.Minute)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "authbridge",
			Audience:  jwt.ClaimStrings{"authbridge-api"},
			Subject:   "user-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), tokenString)
	assert.Error(t, err)
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	svc := newTestService(t, 15*time.Minute)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			Audience:  jwt.ClaimStrings{"authbridge-api"},
			Subject:   "user-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), tokenString)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRejectsMissingExpiry(t *testing.T) {
	svc := newTestService(t, 15*time.Minute)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   "authbridge",
			Audience: jwt.ClaimStrings{"authbridge-api"},
			Subject:  "user-123",
		},
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), tokenString)
	assert.Error(t, err)
}

func TestVerifyRejectsMissingIssuedAt(t *testing.T) {
	svc := newTestService(t, 15*time.Minute)

	// Correctly signed, valid iss/aud/sub/exp, but no iat. The parser
	// alone would accept this; the presence check must not.
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "authbridge",
			Audience:  jwt.ClaimStrings{"authbridge-api"},
			Subject:   "user-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: "member",
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), tokenString)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRejectsEmptySubject(t *testing.T) {
	svc := newTestService(t, 15*time.Minute)

	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "authbridge",
			Audience:  jwt.ClaimStrings{"authbridge-api"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Role: "member",
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), tokenString)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, _ := newRedisTestService(t)
	ctx := context.Background()

	pair, err := svc.Issue(ctx, "user-123", "member")
	require.NoError(t, err)
	require.NotEmpty(t, pair.RefreshToken)

	rotated, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, rotated.RefreshToken)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// The new access token carries the same identity.
	claims, err := svc.Verify(ctx, rotated.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "member", claims.Role)
}

func TestRefreshRejectsReplay(t *testing.T) {
	svc, _ := newRedisTestService(t)
	ctx := context.Background()

	pair, err := svc.Issue(ctx, "user-123", "member")
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)

	// The consumed token must not work a second time.
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshUnknown)
}

func TestRefreshRejectsUnknownToken(t *testing.T) {
	svc, _ := newRedisTestService(t)

	_, err := svc.Refresh(context.Background(), "never-issued")
	assert.ErrorIs(t, err, ErrRefreshUnknown)
}

func TestRevokeDenylistsAccessToken(t *testing.T) {
	svc, _ := newRedisTestService(t)
	ctx := context.Background()

	pair, err := svc.Issue(ctx, "user-123", "member")
	require.NoError(t, err)

	claims, err := svc.Verify(ctx, pair.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, claims, pair.RefreshToken))

	// The access token is rejected for the rest of its lifetime.
	_, err = svc.Verify(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	// The refresh token died with the session.
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshUnknown)
}

func TestSweepUserIndexesPrunesExpired(t *testing.T) {
	svc, mr := newRedisTestService(t)
	ctx := context.Background()

	first, err := svc.Issue(ctx, "user-123", "member")
	require.NoError(t, err)
	second, err := svc.Issue(ctx, "user-123", "member")
	require.NoError(t, err)

	// Simulate one refresh token expiring out from under its index entry.
	mr.Del(refreshKeyPrefix + first.RefreshToken)

	pruned, err := svc.SweepUserIndexes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)

	// The live token is untouched.
	_, err = svc.Refresh(ctx, second.RefreshToken)
	assert.NoError(t, err)
}

func TestRefreshWithoutRedis(t *testing.T) {
	svc := newTestService(t, 15*time.Minute)

	_, err := svc.Refresh(context.Background(), "whatever")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestRevokeWithoutRedis(t *testing.T) {
	svc := newTestService(t, 15*time.Minute)

	err := svc.Revoke(context.Background(), nil, "whatever")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestSweepWithoutRedis(t *testing.T) {
	svc := newTestService(t, 15*time.Minute)

	_, err := svc.SweepUserIndexes(context.Background())
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"orgconsole/internal/platform/config"
)

const issuer = "orgconsole"

// TokenType separates short-lived access tokens from refresh tokens.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

var ErrWrongTokenType = errors.New("wrong token type")

type Claims struct {
	Type           TokenType `json:"typ"`
	PrincipalID    string `json:"uid"`
	OrganizationID string `json:"oid,omitempty"`
	Role           string `json:"role,omitempty"`
	Email          string `json:"email"`
	// IssuedAtMillis is compared against the principal's sign-out stamp.
	IssuedAtMillis int64 `json:"iam"`
	jwt.RegisteredClaims
}

// RevokedBy reports whether a sign-out at revokedAt (unix ms) invalidates the token.
func (c *Claims) RevokedBy(revokedAt int64) bool {
	return revokedAt > 0 && c.IssuedAtMillis <= revokedAt
}

type TokenService struct {
	config config.JWTConfig
	now    func() time.Time
}

func NewTokenService(cfg config.JWTConfig) *TokenService {
	return &TokenService{config: cfg, now: time.Now}
}

// GenerateAccessToken issues a session bound to the principal's active tenant.
// orgID and role are empty when the principal has no active tenant.
func (s *TokenService) GenerateAccessToken(principalID, orgID, role, email string) (string, error) {
	now := s.now()
	claims := Claims{
		Type:           TokenAccess,
		PrincipalID:    principalID,
		OrganizationID: orgID,
		Role:           role,
		Email:          email,
		IssuedAtMillis: now.UnixMilli(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principalID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.Secret))
}

func (s *TokenService) GenerateRefreshToken(principalID string) (string, error) {
	now := s.now()
	claims := Claims{
		Type:           TokenRefresh,
		PrincipalID:    principalID,
		IssuedAtMillis: now.UnixMilli(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principalID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.RefreshTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.Secret))
}

// ValidateAccessToken accepts only tokens minted by GenerateAccessToken.
func (s *TokenService) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.validate(tokenString, TokenAccess)
}

// ValidateRefreshToken accepts only tokens minted by GenerateRefreshToken.
func (s *TokenService) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return s.validate(tokenString, TokenRefresh)
}

func (s *TokenService) validate(tokenString string, want TokenType) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithIssuer(issuer))

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.PrincipalID == "" {
		return nil, errors.New("invalid token")
	}
	if claims.Type != want {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"kukkee/internal/domain"
	"kukkee/internal/service"
	apperrors "kukkee/pkg/errors"
	"kukkee/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the JWT claims issued to signed-in users
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Service validates and issues HS256 tokens
type Service struct {
	secret []byte
	issuer string
	logger *logger.Logger
	now    func() time.Time
}

// NewService creates a new auth service
func NewService(secret, issuer string, logger *logger.Logger) *Service {
	return &Service{
		secret: []byte(secret),
		issuer: issuer,
		logger: logger,
		now:    time.Now,
	}
}

var _ service.AuthService = (*Service)(nil)

// ValidateToken parses a signed token and returns the requester it names
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*domain.Requester, error) {
	if len(s.secret) == 0 {
		s.logger.Error("JWT_SECRET not configured")
		return nil, apperrors.NewAuthenticationError("Token validation not configured")
	}
	if !isJWTToken(tokenString) {
		return nil, apperrors.NewAuthenticationError("Unrecognized token format")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, opts...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			s.logger.Debug("JWT token has expired")
			return nil, apperrors.NewAuthenticationError("Token has expired")
		}
		s.logger.WithError(err).Debug("Failed to parse/validate JWT token")
		return nil, apperrors.NewAuthenticationError("Invalid JWT token")
	}
	if !token.Valid {
		return nil, apperrors.NewAuthenticationError("Invalid JWT token")
	}

	username := strings.TrimSpace(claims.Username)
	if username == "" {
		s.logger.Debug("No username found in JWT token")
		return nil, apperrors.NewAuthenticationError("Invalid JWT token: no username")
	}

	s.logger.WithField("username", username).Debug("JWT token validated successfully")
	return &domain.Requester{Username: username, Subject: claims.Subject}, nil
}

// IssueToken signs a token for username valid for ttl
func (s *Service) IssueToken(username string, ttl time.Duration) (string, error) {
	if len(s.secret) == 0 {
		return "", errors.New("JWT secret not configured")
	}
	if strings.TrimSpace(username) == "" {
		return "", errors.New("username is required")
	}

	now := s.now()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// isJWTToken reports whether token has the three dot-separated segments of a JWS
func isJWTToken(token string) bool {
	if token == "" {
		return false
	}
	return strings.Count(token, ".") == 2
}

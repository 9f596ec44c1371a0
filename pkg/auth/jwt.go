package auth

import (
	"errors"
	"fmt"
	"roombook/pkg/config"
	"roombook/pkg/model"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrEmptySecret   = errors.New("jwt secret must not be empty")
	ErrMissingClaims = errors.New("token is missing subject or role")
	ErrUnknownRole   = errors.New("token carries an unknown role")
)

// Claims is the token payload: sub is the user id.
type Claims struct {
	Role       string `json:"role"`
	Department string `json:"department,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 access tokens.
type TokenManager struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewTokenManager(secret, issuer string) (*TokenManager, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &TokenManager{secret: []byte(secret), issuer: issuer, now: time.Now}, nil
}

// Issue signs a token for identity valid for ttl.
func (m *TokenManager) Issue(identity model.Identity, ttl time.Duration) (string, error) {
	if identity.ID == "" || identity.Role == "" {
		return "", ErrMissingClaims
	}

	now := m.now().UTC()
	claims := Claims{
		Role:       identity.Role,
		Department: identity.Department,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (m *TokenManager) Verify(raw string) (model.Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, opts...)
	if err != nil {
		return model.Identity{}, err
	}

	if claims.Subject == "" || claims.Role == "" {
		return model.Identity{}, ErrMissingClaims
	}
	switch claims.Role {
	case config.RoleFaculty, config.RoleStudent, config.RoleAdmin:
	default:
		return model.Identity{}, ErrUnknownRole
	}

	return model.Identity{
		ID:         claims.Subject,
		Role:       claims.Role,
		Department: claims.Department,
	}, nil
}

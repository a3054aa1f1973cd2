package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
)

// Identity is the resolved caller of a request. Exactly one of CustomerID
// or UserID is meaningful depending on Role.
type Identity struct {
	Subject    string
	Role       string
	CustomerID int64
	UserID     int64
}

type claims struct {
	Role       string `json:"role"`
	CustomerID int64  `json:"customer_id,omitempty"`
	UserID     int64  `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// IssueCustomerToken signs a customer-scoped HS256 token.
func IssueCustomerToken(secret string, customerID int64, ttl time.Duration) (string, error) {
	return issue(secret, claims{
		Role:       RoleCustomer,
		CustomerID: customerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("customer:%d", customerID),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
}

// IssueStaffToken signs a staff-scoped HS256 token.
func IssueStaffToken(secret string, userID int64, ttl time.Duration) (string, error) {
	return issue(secret, claims{
		Role:   RoleStaff,
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("user:%d", userID),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
}

func issue(secret string, c claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString([]byte(secret))
}

// ParseToken verifies an HS256 token and returns the resolved identity.
func ParseToken(secret, tokenString string) (*Identity, error) {
	if tokenString == "" {
		return nil, errors.New("empty token")
	}

	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return &Identity{
		Subject:    c.Subject,
		Role:       c.Role,
		CustomerID: c.CustomerID,
		UserID:     c.UserID,
	}, nil
}

// ExtractTokenFromRequest extracts a JWT from an Authorization header.
func ExtractTokenFromRequest(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header is missing")
	}

	// Bearer token format: "Bearer {token}"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("authorization header format must be 'Bearer {token}'")
	}

	return parts[1], nil
}

// internal/auth/auth.go
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tabula-io/tabula-backend/api/models"
	"github.com/tabula-io/tabula-backend/internal/domain"
	"github.com/tabula-io/tabula-backend/internal/logger"
)

var (
	ErrTokenMalformed          = errors.New("malformed token")
	ErrTokenExpired            = errors.New("token is expired or not valid yet")
	ErrTokenInvalid            = errors.New("invalid token")
	ErrTokenClaimsInvalid      = errors.New("invalid token claims")
	ErrUnauthorized            = errors.New("unauthorized")
	ErrUnexpectedSigningMethod = errors.New("unexpected token signing method")
	customLog                  = logger.NewLogger()
)

// GenerateJWT creates a signed token for an identity. The external platform
// is the usual issuer; this is used by operational tooling and tests.
func GenerateJWT(ident domain.Identity, jwtSecret string, jwtExpiration time.Duration) (string, error) {
	claims := models.CustomClaims{
		UserID:  ident.UserID,
		GroupID: ident.GroupID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "tabula-backend",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(jwtSecret))
	if err != nil {
		customLog.Warnf("Error signing JWT for user %s: %v", ident.UserID, err)
		return "", fmt.Errorf("failed to generate token")
	}

	return signedToken, nil
}

// ValidateJWT parses and validates a token string, returning the embedded
// identity when valid.
func ValidateJWT(tokenString, jwtSecret string) (domain.Identity, error) {
	claims := &models.CustomClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			customLog.Warnf("ValidateJWT: Unexpected signing method: %v", token.Header["alg"])
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedSigningMethod, token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	})

	if err != nil {
		customLog.Warnf("ValidateJWT: Token parsing error: %v", err)
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return domain.Identity{}, ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenNotValidYet):
			return domain.Identity{}, ErrTokenExpired
		case errors.Is(err, ErrUnexpectedSigningMethod):
			return domain.Identity{}, err
		default:
			return domain.Identity{}, ErrTokenInvalid
		}
	}

	if !token.Valid {
		customLog.Warnf("ValidateJWT: Invalid token marked by library")
		return domain.Identity{}, ErrTokenInvalid
	}

	// Both claims must be present to resolve permissions for the request.
	if claims.UserID == "" || claims.GroupID == "" {
		customLog.Warnf("ValidateJWT: UserID or GroupID missing in token claims")
		return domain.Identity{}, ErrTokenClaimsInvalid
	}

	return domain.Identity{UserID: claims.UserID, GroupID: claims.GroupID}, nil
}

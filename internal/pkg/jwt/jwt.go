package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrWrongTokenType = errors.New("wrong token type")
)

const (
	Issuer   = "financepro"
	Audience = "financepro-client"

	// Token types carried in the token_type claim
	TypeAccess    = "access"
	TypeRefresh   = "refresh"
	TypeTwoFactor = "2fa_pending"

	// PendingTokenMinutes is the TTL of the intermediate 2FA token
	PendingTokenMinutes = 5
)

// Claims represents the JWT claims for every token type
type Claims struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	Rol        string `json:"rol"`
	SucursalID string `json:"sucursal_id,omitempty"`
	TokenType  string `json:"token_type"`
	jwt.RegisteredClaims
}

// GenerateAccessToken generates a new access token
func GenerateAccessToken(userID, email, rol, sucursalID, secret string, expiryMinutes int) (string, error) {
	return generate(userID, email, rol, sucursalID, TypeAccess, secret,
		time.Duration(expiryMinutes)*time.Minute)
}

// GenerateRefreshToken generates a new refresh token
func GenerateRefreshToken(userID, email, secret string, expiryDays int) (string, error) {
	return generate(userID, email, "", "", TypeRefresh, secret,
		time.Duration(expiryDays)*24*time.Hour)
}

// GeneratePendingToken generates the short-lived token handed out between
// a successful password check and 2FA verification
func GeneratePendingToken(userID, email, secret string) (string, error) {
	return generate(userID, email, "", "", TypeTwoFactor, secret,
		PendingTokenMinutes*time.Minute)
}

func generate(userID, email, rol, sucursalID, tokenType, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:     userID,
		Email:      email,
		Rol:        rol,
		SucursalID: sucursalID,
		TokenType:  tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{Audience},
			Subject:   userID,
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateAccessToken validates an access token and returns claims
func ValidateAccessToken(tokenString, secret string) (*Claims, error) {
	return validate(tokenString, secret, TypeAccess)
}

// ValidateRefreshToken validates a refresh token and returns claims
func ValidateRefreshToken(tokenString, secret string) (*Claims, error) {
	return validate(tokenString, secret, TypeRefresh)
}

// ValidatePendingToken validates a 2FA pending token and returns claims
func ValidatePendingToken(tokenString, secret string) (*Claims, error) {
	return validate(tokenString, secret, TypeTwoFactor)
}

func validate(tokenString, secret, wantType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrTokenInvalid
			}
			return []byte(secret), nil
		},
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(Audience),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.TokenType != wantType {
		return nil, ErrWrongTokenType
	}

	return claims, nil
}

// GetExpiryTime returns the expiry time for a refresh token issued now
func GetExpiryTime(days int) time.Time {
	return time.Now().Add(time.Duration(days) * 24 * time.Hour)
}

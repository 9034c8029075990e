package auth

import (
	"fmt"
	"time"

	"taskmanager/internal/apperrors"

	"github.com/dgrijalva/jwt-go"
)

type Credentials struct {
	Username string `json:"username" validate:"notblank,max=150"`
	Password string `json:"password" validate:"required"`
}

type Claims struct {
	Username string `json:"username"`
	jwt.StandardClaims
}

// TokenIssuer signs and verifies HS256 bearer tokens
type TokenIssuer struct {
	key    []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewTokenIssuer(key []byte, ttl time.Duration, issuer string) *TokenIssuer {
	return &TokenIssuer{key: key, ttl: ttl, issuer: issuer, now: time.Now}
}

// WithClock returns a copy of the issuer that stamps tokens using now
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	clone := *t
	clone.now = now
	return &clone
}

func (t *TokenIssuer) GenerateJWT(username string) (string, error) {
	issuedAt := t.now()
	claims := &Claims{
		Username: username,
		StandardClaims: jwt.StandardClaims{
			Subject:   username,
			Issuer:    t.issuer,
			IssuedAt:  issuedAt.Unix(),
			ExpiresAt: issuedAt.Add(t.ttl).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.key)
}

// ParseJWT verifies the signature and expiry of tokenStr.
// Failures are InvalidToken or TokenExpired errors.
func (t *TokenIssuer) ParseJWT(tokenStr string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.key, nil
	})

	if err != nil {
		if ve, ok := err.(*jwt.ValidationError); ok {
			forged := jwt.ValidationErrorMalformed | jwt.ValidationErrorUnverifiable | jwt.ValidationErrorSignatureInvalid
			if ve.Errors&forged == 0 && ve.Errors&jwt.ValidationErrorExpired != 0 {
				return nil, apperrors.Wrap(apperrors.CodeTokenExpired, "token expired", err)
			}
		}
		return nil, apperrors.Wrap(apperrors.CodeInvalidToken, "invalid token", err)
	}

	if !token.Valid || claims.Username == "" {
		return nil, apperrors.New(apperrors.CodeInvalidToken, "invalid token")
	}
	if t.issuer != "" && claims.Issuer != t.issuer {
		return nil, apperrors.New(apperrors.CodeInvalidToken, "invalid token")
	}

	return claims, nil
}

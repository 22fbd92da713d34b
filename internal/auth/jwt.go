package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenTTL = 7 * 24 * time.Hour

type JWT struct {
	secret []byte
}

func NewJWT(secret string) *JWT {
	return &JWT{secret: []byte(secret)}
}

// Claims is the verified identity carried by a bearer token.
type Claims struct {
	UserID    uuid.UUID
	SessionID uuid.UUID
}

func (j *JWT) Sign(userID, sessionID uuid.UUID) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID.String(),
		"jti": sessionID.String(),
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(tokenTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(j.secret)
}

func (j *JWT) Verify(tokenStr string) (Claims, error) {
	t, err := jwt.Parse(tokenStr, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return j.secret, nil
	})
	if err != nil || !t.Valid {
		return Claims{}, errors.New("invalid token")
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, errors.New("invalid claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return Claims{}, errors.New("missing sub")
	}
	uid, err := uuid.Parse(sub)
	if err != nil {
		return Claims{}, errors.New("invalid sub")
	}

	jti, ok := claims["jti"].(string)
	if !ok {
		return Claims{}, errors.New("missing jti")
	}
	sid, err := uuid.Parse(jti)
	if err != nil {
		return Claims{}, errors.New("invalid jti")
	}

	return Claims{UserID: uid, SessionID: sid}, nil
}

package jwt

import (
	"errors"
	"fmt"
	"time"

	"base_gallery/internal/domain/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Issuer выпускает короткоживущие токены идентичности (HS256).
// В разработке заменяет внешний провайдер аутентификации.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type Claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// NewToken returns a signed token for user and its metadata.
func (i *Issuer) NewToken(user models.User) (string, models.TokenMeta, error) {
	const op = "jwt.Issuer.NewToken"

	now := i.now()
	meta := models.TokenMeta{
		UserID:    user.ID,
		TokenID:   uuid.NewString(),
		IssuedAt:  now,
		ExpiresAt: now.Add(i.ttl),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Name: user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   meta.UserID,
			ID:        meta.TokenID,
			IssuedAt:  jwt.NewNumericDate(meta.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(meta.ExpiresAt),
		},
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", models.TokenMeta{}, fmt.Errorf("%s: %w", op, err)
	}

	return signed, meta, nil
}

func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	const op = "jwt.Issuer.Parse"

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		}
		return nil, fmt.Errorf("%s: %w: %v", op, ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%s: %w: missing subject", op, ErrInvalidToken)
	}

	return claims, nil
}

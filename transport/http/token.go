package http

import (
	"crypto/ed25519"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"

	"github.com/confmeet/posterwall/conf"
)

var (
	ErrTokenNotInit = errors.New("token not initialized")
	ErrInvalidToken = errors.New("invalid token")
)

var (
	issuer   string
	audience string
	keyFn    jwt.Keyfunc
)

func Init(i, a string, privkey ed25519.PrivateKey) {
	issuer = i
	audience = a

	pubkey := privkey.Public().(ed25519.PublicKey)
	keyFn = func(t *jwt.Token) (any, error) {
		return pubkey, nil
	}
}

type Claims struct {
	jwt.RegisteredClaims
}

func ParseToken(ctx *gin.Context, claims jwt.Claims) error {
	if audience == "" || keyFn == nil {
		return ErrTokenNotInit
	}

	authHeader := ctx.GetHeader("Authorization")

	tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok {
		return ErrInvalidToken
	}

	_, err := jwt.ParseWithClaims(tokenStr, claims, keyFn,
		jwt.WithAudience(audience),
		jwt.WithLeeway(10*time.Second),
	)

	return err
}

// IssueToken mints an admin token for the given subject, signed with
// the configured ed25519 key.
func IssueToken(subject string) (string, time.Time, error) {
	cfg := conf.G().Admin
	if len(cfg.Privkey) == 0 {
		return "", time.Time{}, ErrTokenNotInit
	}

	now := time.Now()
	expiredAt := now.Add(cfg.Timeout)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  cfg.Audiences,
			ExpiresAt: jwt.NewNumericDate(expiredAt),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        ulid.Make().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	tokenStr, err := token.SignedString(cfg.Privkey)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenStr, expiredAt, nil
}

package jwt

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Rejections returned by Verify.
var (
	ErrMalformed    = errors.New("token malformed")
	ErrBadSignature = errors.New("token signature mismatch")
	ErrExpired      = errors.New("token expired")
)

var signingMethod = jwt.SigningMethodHS512

// Codec issues and verifies HS512-signed tokens carrying a user id and an expiry.
// The signing key is fixed at construction; replacing it invalidates every
// token issued under the previous key.
type Codec struct {
	secretKey []byte
	exp       time.Duration
	now       func() time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithSecretKey sets the HMAC signing key.
func WithSecretKey(key string) Option {
	return func(c *Codec) {
		c.secretKey = []byte(key)
	}
}

// WithExpiration sets the ttl used by Generate.
func WithExpiration(exp time.Duration) Option {
	return func(c *Codec) {
		c.exp = exp
	}
}

// WithClock overrides the time source used for issuing and validating tokens.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

// New creates a Codec. Expiration defaults to one hour.
func New(opts ...Option) *Codec {
	c := &Codec{
		exp: time.Hour,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate issues a token for userID with the configured expiration.
func (c *Codec) Generate(ctx context.Context, userID int64) (string, error) {
	return c.Issue(ctx, userID, c.exp)
}

// Issue creates a token for subject that expires ttl from now.
func (c *Codec) Issue(ctx context.Context, subject int64, ttl time.Duration) (string, error) {
	now := c.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(subject, 10),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(signingMethod, claims)
	return token.SignedString(c.secretKey)
}

// Verify checks the token signature and expiry and returns the subject.
func (c *Codec) Verify(ctx context.Context, tokenString string) (int64, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return c.secretKey, nil
		},
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return 0, ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return 0, ErrBadSignature
	default:
		return 0, errors.Join(ErrMalformed, err)
	}
	if !c.now().Before(claims.ExpiresAt.Time) {
		return 0, ErrExpired
	}

	subject, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, errors.Join(ErrMalformed, err)
	}
	return subject, nil
}

// Package auth verifies bearer tokens minted by the session provider and
// turns them into an explicit model.Identity.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/maxviazov/crm-service/internal/model"
)

var (
	// ErrUnauthenticated marks every token problem; callers map it to 401.
	ErrUnauthenticated = errors.New("unauthenticated")

	errMissingToken   = fmt.Errorf("%w: missing token", ErrUnauthenticated)
	errInvalidToken   = fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	errMissingSubject = fmt.Errorf("%w: token has no subject", ErrUnauthenticated)
)

// Config describes tokens accepted (and, for development, issued) by the service.
type Config struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
}

// claims is the token payload shared with the session provider.
type claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 tokens with issuer and audience checks.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewVerifier(cfg Config) *Verifier {
	return &Verifier{
		secret: []byte(cfg.Secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithAudience(cfg.Audience),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(30*time.Second),
		),
	}
}

// Verify parses raw and returns the identity it carries.
func (v *Verifier) Verify(raw string) (model.Identity, error) {
	if raw == "" {
		return model.Identity{}, errMissingToken
	}
	if len(v.secret) == 0 {
		return model.Identity{}, fmt.Errorf("%w: verifier has no secret", ErrUnauthenticated)
	}

	var c claims
	_, err := v.parser.ParseWithClaims(raw, &c, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return model.Identity{}, fmt.Errorf("%w: %v", errInvalidToken, err)
	}
	if c.Subject == "" {
		return model.Identity{}, errMissingSubject
	}
	return model.Identity{UserID: c.Subject, Email: c.Email, Role: c.Role}, nil
}

// Issuer signs tokens with the same claims the verifier expects.
type Issuer struct {
	cfg Config
	now func() time.Time
}

func NewIssuer(cfg Config) *Issuer {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	return &Issuer{cfg: cfg, now: time.Now}
}

// Issue returns a signed token for id.
func (i *Issuer) Issue(id model.Identity) (string, error) {
	if id.UserID == "" {
		return "", errors.New("identity has no user id")
	}
	now := i.now()
	c := claims{
		Email: id.Email,
		Role:  id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.cfg.Issuer,
			Audience:  jwt.ClaimStrings{i.cfg.Audience},
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.cfg.TTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(i.cfg.Secret))
}

package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// Issuer and Audience tag every minted token and are enforced on verify.
	Issuer   = "carelink"
	Audience = "carelink-clients"
)

var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed or invalid")
)

// Identity is the authenticated principal attached to a request.
type Identity struct {
	ID             uuid.UUID
	Email          string
	Role           string
	Specialization string
}

type Claims struct {
	jwt.RegisteredClaims
	Email          string `json:"email"`
	Role           string `json:"role"`
	Specialization string `json:"specialization,omitempty"`
}

// TokenService mints and verifies HS256-signed tokens carrying the caller's
// id, email and role. Tokens are stateless: the server keeps no session state
// and revocation is by expiry only.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

func (s *TokenService) Issue(id Identity) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID.String(),
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Email:          id.Email,
		Role:           id.Role,
		Specialization: id.Specialization,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify parses and validates a raw token. Expired tokens are reported as
// ErrTokenExpired; every other failure collapses to ErrTokenMalformed.
func (s *TokenService) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(Audience),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}
	if !token.Valid {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

// Identity resolves the principal carried by a verified set of claims.
func (c *Claims) Identity() (Identity, error) {
	uid, err := uuid.Parse(c.Subject)
	if err != nil {
		return Identity{}, ErrTokenMalformed
	}
	return Identity{ID: uid, Email: c.Email, Role: c.Role, Specialization: c.Specialization}, nil
}

// ExtractToken pulls the raw token out of an Authorization header value.
// Both "Bearer <token>" and a bare token are accepted.
func ExtractToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 {
		if !strings.EqualFold(parts[0], "bearer") {
			return "", false
		}
		tok := strings.TrimSpace(parts[1])
		return tok, tok != ""
	}
	return parts[0], true
}

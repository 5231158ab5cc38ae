package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"auction-marketplace/internal/biddingerrors"
	"auction-marketplace/internal/models"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
)

const contextKey = "session.identity"

// Claims is the token payload issued by the auth service
type Claims struct {
	Role  string `json:"role"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller of a request
type Identity struct {
	UserID string
	Email  string
	Role   models.Role
}

// Parser signs and validates HS256 session tokens
type Parser struct {
	secret []byte
}

func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(secret)}
}

// Issue signs a token for sub that expires after ttl
func (p *Parser) Issue(sub, email string, role models.Role, ttl time.Duration) (string, error) {
	if sub == "" {
		return "", errors.New("session: empty subject")
	}
	now := time.Now()
	claims := Claims{
		Role:  string(role),
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}

// Parse validates a raw token and returns the caller it names. Every failure
// is reported as ErrUnauthenticated.
func (p *Parser) Parse(raw string) (Identity, error) {
	t, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Identity{}, fmt.Errorf("session: %w - %v", biddingerrors.ErrUnauthenticated, err)
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid || c.Subject == "" {
		return Identity{}, fmt.Errorf("session: %w - invalid token", biddingerrors.ErrUnauthenticated)
	}
	return Identity{UserID: c.Subject, Email: c.Email, Role: models.Role(c.Role)}, nil
}

// BearerToken extracts the token from an Authorization header value
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	tok := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return tok, tok != ""
}

// Set stores id on the request context
func Set(c *gin.Context, id Identity) {
	c.Set(contextKey, id)
}

// FromContext returns the identity stored by Set
func FromContext(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(contextKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

// UserID returns the caller's id, or "" when the request has no session
func UserID(c *gin.Context) string {
	id, _ := FromContext(c)
	return id.UserID
}

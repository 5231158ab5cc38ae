package session

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"auction-marketplace/internal/biddingerrors"
	"auction-marketplace/internal/models"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestParser_IssueAndParse(t *testing.T) {
	t.Parallel()

	p := NewParser("secret")
	tok, err := p.Issue("user-1", "a@b.c", models.RoleAdmin, time.Hour)
	require.NoError(t, err)

	id, err := p.Parse(tok)
	require.NoError(t, err)
	require.Equal(t, Identity{UserID: "user-1", Email: "a@b.c", Role: models.RoleAdmin}, id)
}

func TestParser_SubjectIsRegisteredClaim(t *testing.T) {
	t.Parallel()

	p := NewParser("secret")
	tok, err := p.Issue("user-1", "", models.RoleUser, time.Hour)
	require.NoError(t, err)

	var claims jwt.MapClaims
	_, err = jwt.ParseWithClaims(tok, &claims, func(*jwt.Token) (interface{}, error) { return []byte("secret"), nil })
	require.NoError(t, err)
	sub, err := claims.GetSubject()
	require.NoError(t, err)
	require.Equal(t, "user-1", sub)

	external, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-2",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	id, err := p.Parse(external)
	require.NoError(t, err)
	require.Equal(t, "user-2", id.UserID)
}

func TestParser_Parse_Rejects(t *testing.T) {
	t.Parallel()

	p := NewParser("secret")
	expired, err := p.Issue("user-1", "", models.RoleUser, -time.Minute)
	require.NoError(t, err)
	otherKey, err := NewParser("other").Issue("user-1", "", models.RoleUser, time.Hour)
	require.NoError(t, err)
	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Email: "x@y.z"}).SignedString([]byte("secret"))
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"}}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"expired", expired},
		{"wrong_key", otherKey},
		{"missing_subject", noSub},
		{"alg_none", none},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := p.Parse(tc.token)
			require.Error(t, err)
			require.True(t, errors.Is(err, biddingerrors.ErrUnauthenticated))
		})
	}
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	tok, ok := BearerToken("Bearer abc")
	require.True(t, ok)
	require.Equal(t, "abc", tok)

	_, ok = BearerToken("Basic abc")
	require.False(t, ok)
	_, ok = BearerToken("Bearer ")
	require.False(t, ok)
}

func TestContextHelpers(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	require.Equal(t, "", UserID(c))

	Set(c, Identity{UserID: "user-9", Role: models.RoleUser})
	id, ok := FromContext(c)
	require.True(t, ok)
	require.Equal(t, "user-9", id.UserID)
	require.Equal(t, "user-9", UserID(c))
}

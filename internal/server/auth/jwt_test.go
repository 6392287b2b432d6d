package auth

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var session = Session{UserID: "u-1", Email: "a@x.com", Role: models.RolePremium}

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken(session, []byte("super-secret"), time.Hour)
	require.NoError(t, err)

	got, err := ParseToken(tok, []byte("super-secret"))
	require.NoError(t, err)
	assert.Equal(t, session, *got)
}

func TestParseToken_Expired(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken(session, []byte("secret"), -time.Second)
	require.NoError(t, err)

	_, err = ParseToken(tok, []byte("secret"))
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParseToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken(session, []byte("right-secret"), time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(tok, []byte("wrong-secret"))
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParseToken_Malformed(t *testing.T) {
	t.Parallel()

	_, err := ParseToken("not.a.jwt", []byte("k"))
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParseToken_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{UserID: "u-1"}).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = ParseToken(tok, []byte("k"))
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParseToken_MissingUserID(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken(Session{Email: "a@x.com"}, []byte("k"), time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(tok, []byte("k"))
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestSessionContext(t *testing.T) {
	t.Parallel()

	_, ok := SessionFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithSession(context.Background(), &session)
	got, ok := SessionFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, session, *got)
}

package admincli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/storefront/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func stubTerminal(t *testing.T, tty bool, pw []byte, err error) {
	t.Helper()
	origRead, origTTY := readPassword, isTerminal
	t.Cleanup(func() { readPassword, isTerminal = origRead, origTTY })
	isTerminal = func(int) bool { return tty }
	readPassword = func(int) ([]byte, error) { return pw, err }
}

func noEnv(string) (string, bool) { return "", false }

func TestParseOptions(t *testing.T) {
	o, err := ParseOptions([]string{"-d", "postgres://x", "-email", "root@shop.test", "-age=40", "-l", "debug"})
	require.NoError(t, err)
	assert.Equal(t, Options{Email: "root@shop.test", Name: "Admin", Lastname: "Storefront", Age: 40}, o)

	_, err = ParseOptions([]string{"-name", "Root"})
	require.Error(t, err)

	_, err = ParseOptions([]string{"-email", "a@b", "-age", "old"})
	require.Error(t, err)
}

func TestReadPassword_Terminal(t *testing.T) {
	stubTerminal(t, true, []byte("s3cret"), nil)

	var out bytes.Buffer
	pw, err := ReadPassword(&out, noEnv)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", string(pw))
	assert.Equal(t, "Enter password: \n", out.String())
}

func TestReadPassword_TerminalErrors(t *testing.T) {
	stubTerminal(t, true, nil, errors.New("tty gone"))
	_, err := ReadPassword(&bytes.Buffer{}, noEnv)
	require.EqualError(t, err, "tty gone")

	stubTerminal(t, true, []byte{}, nil)
	_, err = ReadPassword(&bytes.Buffer{}, noEnv)
	require.Error(t, err)
}

func TestReadPassword_Env(t *testing.T) {
	stubTerminal(t, false, nil, nil)

	pw, err := ReadPassword(&bytes.Buffer{}, func(k string) (string, bool) {
		return "from-env", k == PasswordEnv
	})
	require.NoError(t, err)
	assert.Equal(t, "from-env", string(pw))

	_, err = ReadPassword(&bytes.Buffer{}, noEnv)
	require.ErrorContains(t, err, PasswordEnv)
}

func TestCreateAdmin(t *testing.T) {
	m, err := repomanager.NewFileRepositoryManager(t.TempDir(), logging.Nop())
	require.NoError(t, err)
	us := services.NewUserService(m, logging.Nop())
	ctx := context.Background()
	o := Options{Email: "root@shop.test", Name: "Root", Lastname: "Admin", Age: 40}

	u, err := CreateAdmin(ctx, us, o, []byte("s3cret"))
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)
	assert.NotEmpty(t, u.Cart)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("s3cret")))

	_, err = CreateAdmin(ctx, us, o, []byte("other"))
	require.ErrorIs(t, err, common.ErrorAlreadyExists)
}

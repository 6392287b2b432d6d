package grpc

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func newUser(t *testing.T, email string) *structpb.Struct {
	t.Helper()
	st, err := structpb.NewStruct(map[string]any{
		"name": "Ana", "lastname": "Li", "email": email, "age": 30, "password": "hash",
	})
	require.NoError(t, err)
	return st
}

func TestAdmin_UserLifecycle(t *testing.T) {
	client, _ := startAdmin(t)
	ctx := WithToken(context.Background(), tokenFor(t, models.RoleAdmin))

	created, err := client.CreateUser(ctx, newUser(t, "ana@x.com"))
	require.NoError(t, err)
	id := created.GetFields()["_id"].GetStringValue()
	require.NotEmpty(t, id)
	assert.Equal(t, "USER", created.GetFields()["role"].GetStringValue())
	assert.NotContains(t, created.GetFields(), "password")

	_, err = client.CreateUser(ctx, newUser(t, "ana@x.com"))
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	got, err := client.GetUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "ana@x.com", got.GetFields()["email"].GetStringValue())

	byEmail, err := client.GetUserByEmail(ctx, "ana@x.com")
	require.NoError(t, err)
	assert.Equal(t, id, byEmail.GetFields()["_id"].GetStringValue())

	updated, err := client.UpdateUser(ctx, id, map[string]any{"role": "PREMIUM", "age": 31})
	require.NoError(t, err)
	assert.Equal(t, "PREMIUM", updated.GetFields()["role"].GetStringValue())
	assert.Equal(t, 31.0, updated.GetFields()["age"].GetNumberValue())
	assert.Equal(t, created.GetFields()["cart"].GetStringValue(), updated.GetFields()["cart"].GetStringValue())

	list, err := client.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, list.GetValues(), 1)

	require.NoError(t, client.DeleteUser(ctx, id))
	_, err = client.GetUser(ctx, id)
	assert.Equal(t, codes.NotFound, status.Code(err))
	err = client.DeleteUser(ctx, id)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestAdmin_InvalidArguments(t *testing.T) {
	client, _ := startAdmin(t)
	ctx := WithToken(context.Background(), tokenFor(t, models.RoleAdmin))

	bad := newUser(t, "ana@x.com")
	bad.Fields["age"] = structpb.NewStringValue("unknown")
	_, err := client.CreateUser(ctx, bad)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	created, err := client.CreateUser(ctx, newUser(t, "ana@x.com"))
	require.NoError(t, err)
	id := created.GetFields()["_id"].GetStringValue()

	_, err = client.UpdateUser(ctx, "", map[string]any{"name": "X"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.UpdateUser(ctx, id, map[string]any{"role": "OWNER"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.UpdateUser(ctx, id, map[string]any{"age": "old"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.UpdateUser(ctx, "ghost", map[string]any{"name": "X"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestAdmin_RequiresAdminToken(t *testing.T) {
	client, _ := startAdmin(t)

	_, err := client.ListUsers(context.Background())
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = client.ListUsers(WithToken(context.Background(), "garbage"))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = client.ListUsers(WithToken(context.Background(), tokenFor(t, models.RolePremium)))
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = client.ListUsers(WithToken(context.Background(), tokenFor(t, models.RoleAdmin)))
	assert.NoError(t, err)
}

package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/users"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func (s *GRPCServer) ListUsers(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	all, err := s.users.Get(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	values := make([]*structpb.Value, 0, len(all))
	for i := range all {
		st, err := userStruct(&all[i])
		if err != nil {
			return nil, s.toStatus(ctx, err)
		}
		values = append(values, structpb.NewStructValue(st))
	}
	return &structpb.ListValue{Values: values}, nil
}

func (s *GRPCServer) GetUser(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	u, err := s.users.GetByID(ctx, req.GetValue())
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return s.reply(ctx, u)
}

func (s *GRPCServer) GetUserByEmail(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	u, err := s.users.GetByEmail(ctx, req.GetValue())
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return s.reply(ctx, u)
}

func (s *GRPCServer) CreateUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.AsMap()
	u, err := s.users.Add(ctx, users.Candidate{
		Name:     fields["name"],
		Lastname: fields["lastname"],
		Email:    fields["email"],
		Age:      fields["age"],
		Password: fields["password"],
	})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "user created", "user_id", u.ID)
	return s.reply(ctx, u)
}

// UpdateUser expects {"id": "...", "patch": {...}} where patch uses the
// user's JSON keys.
func (s *GRPCServer) UpdateUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := req.GetFields()["id"].GetStringValue()
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}

	patch, err := decodePatch(req.GetFields()["patch"].GetStructValue())
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	u, err := s.users.Update(ctx, id, patch)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return s.reply(ctx, u)
}

func (s *GRPCServer) DeleteUser(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if err := s.users.Delete(ctx, req.GetValue()); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	s.logger.Info(ctx, "user deleted", "user_id", req.GetValue())
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) reply(ctx context.Context, u *models.User) (*structpb.Struct, error) {
	st, err := userStruct(u)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return st, nil
}

// userStruct converts u through its JSON form, without the password.
func userStruct(u *models.User) (*structpb.Struct, error) {
	b, err := json.Marshal(u)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	delete(m, "password")
	return structpb.NewStruct(m)
}

func decodePatch(st *structpb.Struct) (models.UserPatch, error) {
	var patch models.UserPatch
	if st == nil {
		return patch, fmt.Errorf("%w: patch is required", common.ErrorValidation)
	}

	b, err := json.Marshal(st.AsMap())
	if err != nil {
		return patch, err
	}
	if err := json.Unmarshal(b, &patch); err != nil {
		return patch, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	if patch.Role != nil && !patch.Role.Valid() {
		return patch, fmt.Errorf("%w: invalid role %q", common.ErrorValidation, *patch.Role)
	}
	return patch, nil
}

func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, common.ErrorAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, common.ErrorValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, common.ErrorForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, common.ErrorOutOfStock):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		s.logger.Error(ctx, err.Error())
		return status.Error(codes.Internal, "internal error")
	}
}

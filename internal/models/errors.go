package models

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrNotFound        = status.Errorf(codes.NotFound, "not found")
	ErrForbidden       = status.Errorf(codes.PermissionDenied, "forbidden")
	ErrInvalidArgument = status.Errorf(codes.InvalidArgument, "invalid argument")
	ErrConflict        = status.Errorf(codes.AlreadyExists, "conflict")
	ErrUnauthenticated = status.Errorf(codes.Unauthenticated, "unauthenticated")
)

package api

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Hollywood0805/Validation-engine-Backend/internal/types"
)

// statusFromError maps engine errors to gRPC status codes.
// Auth errors are mapped in the auth interceptor.
func statusFromError(err error) error {
	switch {
	case errors.Is(err, types.ErrCorpusUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, types.ErrReferenceNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

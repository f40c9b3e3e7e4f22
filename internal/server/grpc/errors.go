package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/safecircle/internal/common"
	"github.com/go-playground/validator/v10"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// statusFromError maps a domain error to the status returned to clients.
// Unknown errors become Internal without their details.
func statusFromError(err error) *status.Status {
	var verrs validator.ValidationErrors

	switch {
	case errors.As(err, &verrs):
		return status.New(codes.InvalidArgument, verrs.Error())
	case errors.Is(err, common.ErrTokenExpired):
		return status.New(codes.Unauthenticated, common.ErrTokenExpired.Error())
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrInvalidCredentials):
		return status.New(codes.Unauthenticated, common.ErrorUnauthorized.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.New(codes.NotFound, common.ErrorNotFound.Error())
	case errors.Is(err, common.ErrNameConflict),
		errors.Is(err, common.ErrAlreadyExists):
		return status.New(codes.AlreadyExists, err.Error())
	case errors.Is(err, common.ErrSessionConflict):
		return status.New(codes.FailedPrecondition, common.ErrSessionConflict.Error())
	case errors.Is(err, common.ErrNotMember):
		return status.New(codes.PermissionDenied, common.ErrNotMember.Error())
	case errors.Is(err, common.ErrInvalidArgument):
		return status.New(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrTransient),
		errors.Is(err, context.DeadlineExceeded):
		return status.New(codes.Unavailable, common.ErrTransient.Error())
	case errors.Is(err, context.Canceled):
		return status.New(codes.Canceled, context.Canceled.Error())
	default:
		return status.New(codes.Internal, common.ErrorInternal.Error())
	}
}

// toStatus converts err for the wire and logs what clients do not see.
func (s *GRPCServer) toStatus(ctx context.Context, method string, err error) error {
	st := statusFromError(err)
	switch st.Code() {
	case codes.Internal:
		s.logger.Error(ctx, "request failed", "method", method, "error", err)
	case codes.Unavailable:
		s.logger.Warn(ctx, "store unavailable", "method", method, "error", err)
	}
	return st.Err()
}

package api

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/signalsfoundry/impact-simulator/core"
	"github.com/signalsfoundry/impact-simulator/kb"
)

// ToStatusError maps service errors onto gRPC status codes.
func ToStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, kb.ErrPresetNotFound):
		return status.Error(codes.NotFound, err.Error())

	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, kb.ErrInvalidPreset),
		errors.Is(err, core.ErrUnknownComposition):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, kb.ErrDuplicatePreset):
		return status.Error(codes.AlreadyExists, err.Error())

	case errors.Is(err, ErrRateLimited):
		return status.Error(codes.ResourceExhausted, err.Error())

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())

	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// httpStatus is the websocket endpoint's analogue of ToStatusError, applied
// before the connection is upgraded.
func httpStatus(err error) int {
	switch status.Code(ToStatusError(err)) {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

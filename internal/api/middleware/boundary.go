package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/smithy-go"
	"github.com/example/order-backend/internal/apperror"
	"github.com/example/order-backend/internal/validation"
	"go.uber.org/zap"
)

// ErrorBoundary turns every error and panic from the rest of the chain
// into an error envelope. Nothing escapes it.
func ErrorBoundary(log *zap.Logger) Stage {
	return StageFunc(func(ctx context.Context, req *Request, next Handler) (resp *Response, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic while handling request",
					zap.String("requestId", req.RequestID),
					zap.String("panic", fmt.Sprint(r)),
					zap.Stack("stack"))
				resp, err = withCORS(ErrorResponse(http.StatusInternalServerError, apperror.CodeInternal, "Internal server error", nil)), nil
			}
		}()

		resp, err = next(ctx, req)
		if err != nil {
			return withCORS(mapError(log, req, err)), nil
		}
		if resp == nil {
			log.Error("handler returned no response", zap.String("requestId", req.RequestID))
			return withCORS(ErrorResponse(http.StatusInternalServerError, apperror.CodeInternal, "Internal server error", nil)), nil
		}
		return resp, nil
	})
}

// statusFor is the HTTP status mapError will give err.
func statusFor(err error) int {
	var validationErr *validation.Error
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest
	}
	return apperror.StatusOf(err)
}

func mapError(log *zap.Logger, req *Request, err error) *Response {
	var validationErr *validation.Error
	if errors.As(err, &validationErr) {
		return ErrorResponse(http.StatusBadRequest, apperror.CodeValidation, "Validation failed", validationErr.Violations)
	}

	if appErr, ok := apperror.As(err); ok {
		status := appErr.Status()
		if status >= http.StatusInternalServerError {
			log.Error("request failed", zap.String("requestId", req.RequestID), zap.String("code", string(appErr.Code)), zap.Error(err))
		}
		return ErrorResponse(status, appErr.Code, appErr.Message, nil)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		log.Error("external service failed",
			zap.String("requestId", req.RequestID),
			zap.String("errorCode", apiErr.ErrorCode()),
			zap.Error(err))
		return ErrorResponse(http.StatusInternalServerError, apperror.CodeExternalService, "External service error", nil)
	}

	// SDK transport failures carry no API error code.
	var opErr *smithy.OperationError
	if errors.As(err, &opErr) {
		log.Error("external service failed",
			zap.String("requestId", req.RequestID),
			zap.String("service", opErr.Service()),
			zap.String("operation", opErr.Operation()),
			zap.Error(err))
		return ErrorResponse(http.StatusInternalServerError, apperror.CodeExternalService, "External service error", nil)
	}

	log.Error("request failed", zap.String("requestId", req.RequestID), zap.Error(err))
	return ErrorResponse(http.StatusInternalServerError, apperror.CodeInternal, err.Error(), nil)
}

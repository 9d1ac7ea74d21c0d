package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/todohub/internal/domain/task"
	"github.com/geocoder89/todohub/internal/http/middlewares"
	"github.com/geocoder89/todohub/internal/service"
)

type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
	Details   any    `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	if s := ctx.GetString(middlewares.CtxRequestID); s != "" {
		return s
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details any) {
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details any) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondUnAuthorized(ctx *gin.Context, code, message string, details any) {
	RespondError(ctx, http.StatusUnauthorized, code, message, details)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

func RespondConflict(ctx *gin.Context, code, message string, details any) {
	RespondError(ctx, http.StatusConflict, code, message, details)
}

// RespondServiceError maps service and domain errors onto the envelope.
// Anything unrecognised is logged and answered with a generic 500.
func RespondServiceError(ctx *gin.Context, log *slog.Logger, err error, details gin.H) {
	var ve *service.ValidationError

	switch {
	case errors.As(err, &ve):
		d := gin.H{}
		for k, v := range details {
			d[k] = v
		}
		if ve.Field != "" {
			d["field"] = ve.Field
		}
		RespondError(ctx, http.StatusBadRequest, ve.Code, ve.Message, d)

	case errors.Is(err, service.ErrUsernameExists):
		RespondConflict(ctx, "username_exists", "Username already exists", details)

	case errors.Is(err, service.ErrInvalidCredentials):
		RespondUnAuthorized(ctx, "invalid_credentials", "Invalid username or password", details)

	case errors.Is(err, service.ErrUnauthenticated):
		RespondUnAuthorized(ctx, "unauthenticated", "Authentication required", nil)

	case errors.Is(err, task.ErrNotFound):
		RespondNotFound(ctx, "Task not found")

	default:
		log.ErrorContext(ctx.Request.Context(), "request failed",
			"err", err,
			"route", ctx.FullPath(),
			"request_id", requestIDFrom(ctx),
		)
		RespondInternal(ctx, "Something went wrong. Please try again.")
	}
}

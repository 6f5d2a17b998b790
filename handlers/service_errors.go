package handlers

import (
	"net/http"

	"github.com/upb/clearpath-assistant/services"
	"github.com/upb/clearpath-assistant/utils"
	"go.uber.org/zap"
)

// StatusForError returns the HTTP status a service error maps to
func StatusForError(err error) int {
	switch {
	case services.IsNotFoundError(err):
		return http.StatusNotFound
	case services.IsValidationError(err):
		return http.StatusBadRequest
	case services.IsRateLimitError(err):
		return http.StatusTooManyRequests
	case services.IsExternalError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// HandleServiceError maps domain errors to HTTP responses
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	details := services.GetErrorDetails(err)

	var writeErr error
	switch StatusForError(err) {
	case http.StatusNotFound:
		writeErr = utils.WriteNotFound(w, err.Error())

	case http.StatusBadRequest:
		writeErr = utils.WriteBadRequest(w, err.Error(), details)

	case http.StatusTooManyRequests:
		writeErr = utils.WriteTooManyRequests(w, err.Error(), details)

	case http.StatusBadGateway:
		// Upstream provider errors keep their message; the cause stays in logs
		logger.Warn("external provider error", zap.Error(err))
		writeErr = utils.WriteBadGateway(w, errorMessage(err), details)

	default:
		// Log internal errors but return generic message
		logger.Error("internal server error",
			zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))))
		writeErr = utils.WriteInternalServerError(w, "An internal error occurred")
	}

	if writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}
}

// HandleValidationError handles validation errors from request parsing
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if utils.IsValidationError(err) {
		fields := utils.GetValidationFields(err)
		details := make(map[string]interface{})
		for k, v := range fields {
			details[k] = v
		}
		if err := utils.WriteBadRequest(w, "Validation failed", details); err != nil {
			logger.Error("failed to write validation error response", zap.Error(err))
		}
		return
	}

	if err := utils.WriteBadRequest(w, err.Error(), nil); err != nil {
		logger.Error("failed to write validation error response", zap.Error(err))
	}
}

func errorMessage(err error) string {
	if domainErr, ok := err.(*services.DomainError); ok {
		return domainErr.Message
	}
	return err.Error()
}

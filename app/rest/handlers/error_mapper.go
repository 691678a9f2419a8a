package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"modelhub/app/domain"
)

// ErrorResponse is the JSON error envelope returned by all handlers
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse wraps informational responses
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// respondError maps domain errors to HTTP status codes so every
// handler reports failures the same way.
func respondError(c echo.Context, err error) error {
	var authErr *domain.AuthError
	if errors.As(err, &authErr) {
		return c.JSON(authErrorStatus(authErr.Code), ErrorResponse{
			Error: authErr.Message,
			Code:  authErr.Code,
		})
	}

	switch {
	case errors.Is(err, domain.ErrModelNotFound),
		errors.Is(err, domain.ErrPurchaseNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNotModelOwner),
		errors.Is(err, domain.ErrForbidden):
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNotAuthenticated),
		errors.Is(err, domain.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrRateLimited):
		return c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrProviderUnavailable):
		return c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrSessionClosed):
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
		})
	}
}

func authErrorStatus(code string) int {
	switch code {
	case domain.CodeInvalidCredentials, domain.CodeNotAuthenticated, domain.CodeConsentAborted:
		return http.StatusUnauthorized
	case domain.CodeUserNotFound:
		return http.StatusNotFound
	case domain.CodeEmailInUse:
		return http.StatusConflict
	case domain.CodeWeakPassword, domain.CodeInvalidEmail:
		return http.StatusBadRequest
	case domain.CodeProviderError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

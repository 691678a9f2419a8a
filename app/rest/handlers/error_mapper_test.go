package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modelhub/app/domain"
)

func TestRespondError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "model not found",
			err:            domain.ErrModelNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "wrapped not found",
			err:            fmt.Errorf("lookup: %w", domain.ErrModelNotFound),
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "not the owner",
			err:            domain.ErrNotModelOwner,
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "not authenticated",
			err:            domain.ErrNotAuthenticated,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "invalid input",
			err:            fmt.Errorf("%w: price must not be negative", domain.ErrInvalidInput),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "rate limited",
			err:            domain.ErrRateLimited,
			expectedStatus: http.StatusTooManyRequests,
		},
		{
			name:           "provider down",
			err:            domain.ErrProviderUnavailable,
			expectedStatus: http.StatusBadGateway,
		},
		{
			name:           "store closed",
			err:            domain.ErrSessionClosed,
			expectedStatus: http.StatusServiceUnavailable,
		},
		{
			name:           "unknown error hides details",
			err:            errors.New("pq: connection refused"),
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:           "auth error carries its code",
			err:            domain.NewAuthError(domain.CodeEmailInUse, "email already in use", nil),
			expectedStatus: http.StatusConflict,
			expectedCode:   domain.CodeEmailInUse,
		},
		{
			name:           "consent aborted",
			err:            domain.NewAuthError(domain.CodeConsentAborted, "consent aborted", nil),
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   domain.CodeConsentAborted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newCatalogRequest(http.MethodGet, "/", "")

			require.NoError(t, respondError(c, tt.err))
			assert.Equal(t, tt.expectedStatus, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
			assert.Equal(t, tt.expectedCode, resp.Code)

			if tt.expectedStatus == http.StatusInternalServerError {
				assert.Equal(t, "internal server error", resp.Error)
			}
		})
	}
}

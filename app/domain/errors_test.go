package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"modelhub/app/domain"
)

func TestAuthError(t *testing.T) {
	cause := errors.New("upstream 409")
	err := domain.NewAuthError(domain.CodeEmailInUse, "email already in use", cause)

	assert.Equal(t, "email already in use: upstream 409", err.Error())
	assert.True(t, errors.Is(err, cause))
}

func TestAuthErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "direct auth error",
			err:      domain.NewAuthError(domain.CodeWeakPassword, "too weak", nil),
			expected: domain.CodeWeakPassword,
		},
		{
			name:     "wrapped auth error",
			err:      fmt.Errorf("sign-in: %w", domain.NewAuthError(domain.CodeInvalidCredentials, "bad credentials", nil)),
			expected: domain.CodeInvalidCredentials,
		},
		{
			name:     "plain error",
			err:      errors.New("boom"),
			expected: domain.CodeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, domain.AuthErrorCode(tt.err))
		})
	}
}

package service_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"timelog/internal/service"
)

func TestAuthService(t *testing.T) {
	hash, err := service.HashPassword("correct horse")
	require.NoError(t, err)

	auth := service.NewAuthService(hash, "test-secret", time.Hour)
	require.True(t, auth.Enabled())

	_, apiErr := auth.IssueToken("wrong")
	require.NotNil(t, apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)

	result, apiErr := auth.IssueToken("correct horse")
	require.Nil(t, apiErr)
	require.NotEmpty(t, result.Token)

	subject, apiErr := auth.ParseToken(result.Token)
	require.Nil(t, apiErr)
	require.Equal(t, "owner", subject)

	other := service.NewAuthService(hash, "other-secret", time.Hour)
	_, apiErr = other.ParseToken(result.Token)
	require.NotNil(t, apiErr)
}

func TestAuthServiceDisabled(t *testing.T) {
	auth := service.NewAuthService("", "secret", time.Hour)
	require.False(t, auth.Enabled())

	_, apiErr := auth.IssueToken("anything")
	require.NotNil(t, apiErr)
	require.Equal(t, "auth_disabled", apiErr.Code)

	_, err := service.HashPassword("short")
	require.Error(t, err)
}

package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/iredox10/kano-market-price/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestGenerateAndVerifyToken(t *testing.T) {
	token, err := GenerateToken(testSecret, "admin1", "admin", time.Hour)
	require.NoError(t, err)

	claims, err := VerifyToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "admin1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "admin1", claims.Subject)
}

func TestVerifyToken_Rejects(t *testing.T) {
	expired, err := GenerateToken(testSecret, "admin1", "admin", -time.Minute)
	require.NoError(t, err)

	other, err := GenerateToken("another-secret", "admin1", "admin", time.Hour)
	require.NoError(t, err)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "admin1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"expired":      expired,
		"wrong secret": other,
		"no user":      noUser,
		"alg none":     unsigned,
		"garbage":      "not-a-token",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := VerifyToken(testSecret, token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestVerifyToken_SubjectFallback(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user456",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	claims, err := VerifyToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "user456", claims.UserID)
}

func TestEmptySecret(t *testing.T) {
	_, err := GenerateToken("", "u", "", time.Hour)
	assert.Error(t, err)
	_, err = VerifyToken("", "x")
	assert.Error(t, err)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.NewError(domain.KindUnauthenticated, "", nil), http.StatusUnauthorized},
		{domain.NewError(domain.KindPermissionDenied, "", nil), http.StatusForbidden},
		{domain.NewError(domain.KindInvalidPayload, "", nil), http.StatusBadRequest},
		{domain.NewError(domain.KindApplicationNotFound, "", domain.ErrNotFound), http.StatusNotFound},
		{domain.NewError(domain.KindInvalidTransition, "", nil), http.StatusConflict},
		{domain.NewError(domain.KindMembershipCreationFailed, "", nil), http.StatusInternalServerError},
		{domain.NewError(domain.KindRoleUpdateFailed, "", nil), http.StatusInternalServerError},
		{domain.NewError(domain.KindShopRecordCreationFailed, "", nil), http.StatusInternalServerError},
		{domain.NewError(domain.KindStatusUpdateFailed, "", domain.ErrUnavailable), http.StatusInternalServerError},
		{domain.NewError(domain.KindInternal, "", fmt.Errorf("get: %w", domain.ErrUnavailable)), http.StatusServiceUnavailable},
		{domain.NewError(domain.KindInternal, "", nil), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestResponses(t *testing.T) {
	assert.Equal(t, gin.H{"success": true, "message": "ok"}, SuccessResponse("ok", nil))
	assert.Equal(t, gin.H{"success": true, "message": "ok", "data": 1}, SuccessResponse("ok", 1))
	assert.Equal(t, gin.H{"success": false, "error": "nope"}, ErrorResponse("nope"))
}

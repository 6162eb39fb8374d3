package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dependency-manager/internal/apperror"
	"dependency-manager/internal/handler"
	"dependency-manager/internal/model"
	"dependency-manager/internal/model/requestresponse"
	"dependency-manager/internal/ratelimit"
	"dependency-manager/internal/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAuthenticationService struct{ mock.Mock }

func (m *MockAuthenticationService) Register(ctx context.Context, email, password, firstName, lastName string) (*model.User, *model.TokensPair, error) {
	args := m.Called(ctx, email, password, firstName, lastName)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.User), args.Get(1).(*model.TokensPair), args.Error(2)
}

func (m *MockAuthenticationService) Login(ctx context.Context, email, password string, rememberMe bool, userAgent, ipAddress string) (*model.User, *model.TokensPair, *requestresponse.SessionInfo, error) {
	args := m.Called(ctx, email, password, rememberMe, userAgent, ipAddress)
	if args.Get(0) == nil {
		return nil, nil, nil, args.Error(3)
	}
	return args.Get(0).(*model.User), args.Get(1).(*model.TokensPair), args.Get(2).(*requestresponse.SessionInfo), args.Error(3)
}

func (m *MockAuthenticationService) Refresh(ctx context.Context, refreshToken string) (*model.User, *model.TokensPair, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.User), args.Get(1).(*model.TokensPair), args.Error(2)
}

func (m *MockAuthenticationService) Logout(ctx context.Context, accessToken string, claims *security.Claims) error {
	return m.Called(ctx, accessToken, claims).Error(0)
}

func (m *MockAuthenticationService) ChangePassword(ctx context.Context, claims *security.Claims, accessToken, currentPassword, newPassword string) error {
	return m.Called(ctx, claims, accessToken, currentPassword, newPassword).Error(0)
}

func (m *MockAuthenticationService) CurrentUser(ctx context.Context, userUUID string) (*model.User, int, error) {
	args := m.Called(ctx, userUUID)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).(*model.User), args.Int(1), args.Error(2)
}

func (m *MockAuthenticationService) Status(ctx context.Context, accessToken string) *requestresponse.StatusResponse {
	return m.Called(ctx, accessToken).Get(0).(*requestresponse.StatusResponse)
}

func (m *MockAuthenticationService) ForgotPassword(ctx context.Context, email, ipAddress string) {
	m.Called(ctx, email, ipAddress)
}

func newTestHandler() (*handler.AuthenticationHandler, *MockAuthenticationService) {
	mockService := new(MockAuthenticationService)
	authLimiter := ratelimit.NewLimiter("auth", 5, time.Minute, ratelimit.NewMemoryStore(),
		"Too many authentication attempts, please try again later")
	return handler.NewAuthenticationHandler(mockService, authLimiter), mockService
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) requestresponse.Envelope {
	t.Helper()
	var envelope requestresponse.Envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	return envelope
}

// ===== Login =====

func TestLoginHandler_Success(t *testing.T) {
	h, mockService := newTestHandler()

	user := &model.User{UUID: "user-1", Email: "user@example.com"}
	tokens := &model.TokensPair{AccessToken: "access", RefreshToken: "refresh"}
	session := &requestresponse.SessionInfo{ExpiresIn: "24h"}

	mockService.On("Login", mock.Anything, "user@example.com", "Str0ngP@ss!", false, mock.Anything, "10.0.0.1").
		Return(user, tokens, session, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"email":"user@example.com","password":"Str0ngP@ss!"}`))
	req.RemoteAddr = "10.0.0.1:4242"

	h.Login(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.True(t, envelope.Success)
	assert.Equal(t, "Login successful", envelope.Message)
	assert.NotZero(t, envelope.Timestamp)

	data := envelope.Data.(map[string]interface{})
	assert.Contains(t, data, "user")
	assert.Contains(t, data, "tokens")
	assert.Contains(t, data, "session")
}

func TestLoginHandler_InvalidCredentials(t *testing.T) {
	h, mockService := newTestHandler()

	mockService.On("Login", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, nil, nil, apperror.Authentication("Invalid email or password"))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"email":"user@example.com","password":"wrong"}`))
	req.RemoteAddr = "10.0.0.1:4242"

	h.Login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.False(t, envelope.Success)
	assert.Equal(t, "INVALID_CREDENTIALS", envelope.Error.Code)
	assert.Equal(t, "Invalid email or password", envelope.Error.Message)
}

func TestLoginHandler_MissingFields(t *testing.T) {
	h, mockService := newTestHandler()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"email":"user@example.com"}`))
	req.RemoteAddr = "10.0.0.1:4242"

	h.Login(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	mockService.AssertNotCalled(t, "Login",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLoginHandler_InvalidJSON(t *testing.T) {
	h, _ := newTestHandler()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader("{broken"))
	req.RemoteAddr = "10.0.0.1:4242"

	h.Login(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", envelope.Error.Code)
}

// ===== Refresh =====

func TestRefreshHandler_MissingToken(t *testing.T) {
	h, _ := newTestHandler()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", strings.NewReader(`{}`))

	h.RefreshToken(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ===== Status =====

func TestStatusHandler_AlwaysOK(t *testing.T) {
	h, mockService := newTestHandler()

	mockService.On("Status", mock.Anything, "").
		Return(&requestresponse.StatusResponse{Authenticated: false})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/status", nil)

	h.Status(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.True(t, envelope.Success)
}

// ===== ForgotPassword =====

// Ответ не зависит от существования адреса
func TestForgotPasswordHandler_UniformResponse(t *testing.T) {
	h, mockService := newTestHandler()

	mockService.On("ForgotPassword", mock.Anything, "anyone@example.com", mock.Anything).Return()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/forgot-password",
		strings.NewReader(`{"email":"anyone@example.com"}`))
	req.RemoteAddr = "10.0.0.1:4242"

	h.ForgotPassword(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "If an account with that email exists, a password reset link has been sent.", envelope.Message)
}

// ===== Logout без контекста аутентификации =====

func TestLogoutHandler_NoAuthContext(t *testing.T) {
	h, _ := newTestHandler()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)

	h.Logout(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

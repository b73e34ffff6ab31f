package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-otp-auth/internal/application/auth"
	"github.com/go-otp-auth/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAuthService struct{ mock.Mock }

func (m *mockAuthService) Signup(ctx context.Context, req domain.SignupRequest) error {
	return m.Called(ctx, req).Error(0)
}
func (m *mockAuthService) ConfirmOTP(ctx context.Context, req domain.ConfirmOTPRequest) (*auth.Result, error) {
	args := m.Called(ctx, req)
	if r, _ := args.Get(0).(*auth.Result); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAuthService) SignIn(ctx context.Context, req domain.SignInRequest) (*auth.Result, error) {
	args := m.Called(ctx, req)
	if r, _ := args.Get(0).(*auth.Result); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func doJSON(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) MessageEnvelope {
	t.Helper()
	var env MessageEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

func TestSignup_InvalidBody(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})
	rec := doJSON(t, h.Signup, "{not json")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid request body", decodeEnvelope(t, rec).Error)
}

func TestSignup_PasswordMismatch(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})
	rec := doJSON(t, h.Signup,
		`{"email":"a@x.com","password":"secret1","password_confirm":"different"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignup_DuplicateEmail_Conflict(t *testing.T) {
	svc := &mockAuthService{}
	svc.On("Signup", mock.Anything, mock.Anything).
		Return(domain.ErrConflict)

	h := NewAuthHandler(svc)
	rec := doJSON(t, h.Signup,
		`{"email":"a@x.com","password":"secret1","password_confirm":"secret1"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSignup_Accepted(t *testing.T) {
	svc := &mockAuthService{}
	svc.On("Signup", mock.Anything, mock.MatchedBy(func(req domain.SignupRequest) bool {
		return req.Email == "a@x.com"
	})).Return(nil)

	h := NewAuthHandler(svc)
	rec := doJSON(t, h.Signup,
		`{"email":"a@x.com","password":"secret1","password_confirm":"secret1"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decodeEnvelope(t, rec).Message, "verify")
}

func TestVerifyOTP_RateLimited(t *testing.T) {
	svc := &mockAuthService{}
	svc.On("ConfirmOTP", mock.Anything, mock.Anything).
		Return(nil, &domain.RateLimitError{RetryAfter: 90 * time.Second})

	h := NewAuthHandler(svc)
	rec := doJSON(t, h.VerifyOTP, `{"email":"a@x.com","otp":"123456"}`)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, 90, env.RetryAfter)
	assert.NotEmpty(t, env.Error)
}

func TestVerifyOTP_WrongCode(t *testing.T) {
	svc := &mockAuthService{}
	svc.On("ConfirmOTP", mock.Anything, mock.Anything).
		Return(nil, domain.ErrUnauthorized)

	h := NewAuthHandler(svc)
	rec := doJSON(t, h.VerifyOTP, `{"email":"a@x.com","otp":"000000"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVerifyOTP_Created(t *testing.T) {
	svc := &mockAuthService{}
	now := time.Now().UTC()
	svc.On("ConfirmOTP", mock.Anything, mock.Anything).Return(&auth.Result{
		Bearer:       "bearer-token",
		RefreshToken: "refresh-token",
		Session: &domain.Session{
			SessionID: "sess1",
			CreatedAt: now,
			Account: &domain.Account{
				AccountID:    "acct1",
				Email:        "a@x.com",
				PasswordHash: "$2a$10$secret",
				Status:       domain.StatusVerified,
				CreatedAt:    now,
			},
		},
	}, nil)

	h := NewAuthHandler(svc)
	rec := doJSON(t, h.VerifyOTP, `{"email":"a@x.com","otp":"123456"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var env AuthEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.Equal(t, "bearer-token", env.Bearer)
	assert.Equal(t, "refresh-token", env.RefreshToken)
	require.NotNil(t, env.Session)
	require.NotNil(t, env.Session.Account)
	assert.Equal(t, "a@x.com", env.Session.Account.Email)
	// Hashes must never appear in the response body.
	assert.NotContains(t, rec.Body.String(), "secret")
}

func TestSignIn_InvalidCredentials(t *testing.T) {
	svc := &mockAuthService{}
	svc.On("SignIn", mock.Anything, mock.Anything).
		Return(nil, domain.ErrUnauthorized)

	h := NewAuthHandler(svc)
	rec := doJSON(t, h.SignIn, `{"email":"a@x.com","password":"wrongpass"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSignIn_OK(t *testing.T) {
	svc := &mockAuthService{}
	svc.On("SignIn", mock.Anything, mock.Anything).Return(&auth.Result{
		Bearer:       "bearer-token",
		RefreshToken: "refresh-token",
		Session:      &domain.Session{SessionID: "sess1"},
	}, nil)

	h := NewAuthHandler(svc)
	rec := doJSON(t, h.SignIn, `{"email":"a@x.com","password":"secret1"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	var env AuthEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.Equal(t, "bearer-token", env.Bearer)
}

package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-otp-auth/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSessionStore struct{ mock.Mock }

func (m *mockSessionStore) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	args := m.Called(ctx, sessionID)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockSessionStore) GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error) {
	args := m.Called(ctx, token)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockSessionStore) RotateRefreshToken(ctx context.Context, sessionID, newToken string, newExpiry int64) error {
	return m.Called(ctx, sessionID, newToken, newExpiry).Error(0)
}
func (m *mockSessionStore) Update(ctx context.Context, sessionID string, updates map[string]interface{}) error {
	return m.Called(ctx, sessionID, updates).Error(0)
}

type mockAccountStore struct{ mock.Mock }

func (m *mockAccountStore) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	args := m.Called(ctx, email)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSigner struct{ mock.Mock }

func (m *mockSigner) Sign(accountID, email, sessionID string) (string, error) {
	args := m.Called(accountID, email, sessionID)
	return args.String(0), args.Error(1)
}

func TestGetCurrent_DisabledSession(t *testing.T) {
	ss := &mockSessionStore{}
	ss.On("Get", mock.Anything, "sess1").Return(&domain.Session{
		SessionID: "sess1",
		Enable:    false,
	}, nil)

	svc := NewService(ss, &mockAccountStore{}, &mockSigner{}, time.Hour)
	_, err := svc.GetCurrent(context.Background(), "sess1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestGetCurrent_HappyPath(t *testing.T) {
	ss := &mockSessionStore{}
	as := &mockAccountStore{}
	ss.On("Get", mock.Anything, "sess1").Return(&domain.Session{
		SessionID: "sess1",
		AccountID: "acct1",
		Email:     "a@x.com",
		Enable:    true,
	}, nil)
	as.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.Account{
		AccountID: "acct1",
		Email:     "a@x.com",
		Status:    domain.StatusVerified,
	}, nil)

	svc := NewService(ss, as, &mockSigner{}, time.Hour)
	sess, err := svc.GetCurrent(context.Background(), "sess1")

	require.NoError(t, err)
	require.NotNil(t, sess.Account)
	assert.Equal(t, "acct1", sess.Account.AccountID)
}

func TestLogout_DisablesSession(t *testing.T) {
	ss := &mockSessionStore{}
	ss.On("Update", mock.Anything, "sess1", map[string]interface{}{"enable": false}).Return(nil)

	svc := NewService(ss, &mockAccountStore{}, &mockSigner{}, time.Hour)
	require.NoError(t, svc.Logout(context.Background(), "sess1"))
	ss.AssertExpectations(t)
}

func TestRefresh_UnknownToken(t *testing.T) {
	ss := &mockSessionStore{}
	ss.On("GetByRefreshToken", mock.Anything, "bogus").Return(nil, domain.ErrNotFound)

	svc := NewService(ss, &mockAccountStore{}, &mockSigner{}, time.Hour)
	_, _, err := svc.Refresh(context.Background(), "bogus")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestRefresh_ExpiredToken(t *testing.T) {
	ss := &mockSessionStore{}
	ss.On("GetByRefreshToken", mock.Anything, "stale").Return(&domain.Session{
		SessionID:        "sess1",
		Email:            "a@x.com",
		Enable:           true,
		RefreshToken:     "stale",
		RefreshExpiresAt: time.Now().Add(-time.Hour).Unix(),
	}, nil)

	svc := NewService(ss, &mockAccountStore{}, &mockSigner{}, time.Hour)
	_, _, err := svc.Refresh(context.Background(), "stale")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestRefresh_HappyPath_RotatesToken(t *testing.T) {
	ss := &mockSessionStore{}
	as := &mockAccountStore{}
	sg := &mockSigner{}

	ss.On("GetByRefreshToken", mock.Anything, "current").Return(&domain.Session{
		SessionID:        "sess1",
		AccountID:        "acct1",
		Email:            "a@x.com",
		Enable:           true,
		RefreshToken:     "current",
		RefreshExpiresAt: time.Now().Add(time.Hour).Unix(),
	}, nil)

	var rotatedTo string
	ss.On("RotateRefreshToken", mock.Anything, "sess1", mock.AnythingOfType("string"), mock.AnythingOfType("int64")).
		Run(func(args mock.Arguments) {
			rotatedTo = args.String(2)
		}).
		Return(nil)
	as.On("GetByEmail", mock.Anything, "a@x.com").Return(&domain.Account{
		AccountID: "acct1",
		Email:     "a@x.com",
	}, nil)
	sg.On("Sign", "acct1", "a@x.com", "sess1").Return("new-bearer", nil)

	svc := NewService(ss, as, sg, time.Hour)
	bearer, newToken, err := svc.Refresh(context.Background(), "current")

	require.NoError(t, err)
	assert.Equal(t, "new-bearer", bearer)
	assert.NotEmpty(t, newToken)
	assert.NotEqual(t, "current", newToken)
	assert.Equal(t, rotatedTo, newToken)
}

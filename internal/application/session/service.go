package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-otp-auth/internal/domain"
	"github.com/go-otp-auth/internal/pkg/token"
)

type sessionStore interface {
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error)
	RotateRefreshToken(ctx context.Context, sessionID, newToken string, newExpiry int64) error
	Update(ctx context.Context, sessionID string, updates map[string]interface{}) error
}

type accountStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
}

type tokenSigner interface {
	Sign(accountID, email, sessionID string) (string, error)
}

type Service interface {
	GetCurrent(ctx context.Context, sessionID string) (*domain.Session, error)
	Logout(ctx context.Context, sessionID string) error
	Refresh(ctx context.Context, refreshToken string) (bearer, newRefreshToken string, err error)
}

type service struct {
	sessions        sessionStore
	accounts        accountStore
	signer          tokenSigner
	refreshTokenDur time.Duration
}

func NewService(sessions sessionStore, accounts accountStore, signer tokenSigner, refreshTokenDur time.Duration) Service {
	return &service{
		sessions:        sessions,
		accounts:        accounts,
		signer:          signer,
		refreshTokenDur: refreshTokenDur,
	}
}

func (s *service) GetCurrent(ctx context.Context, sessionID string) (*domain.Session, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Enable {
		return nil, fmt.Errorf("session expired: %w", domain.ErrUnauthorized)
	}
	acct, err := s.accounts.GetByEmail(ctx, sess.Email)
	if err != nil {
		return nil, err
	}
	sess.Account = acct
	return sess, nil
}

func (s *service) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Update(ctx, sessionID, map[string]interface{}{"enable": false})
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	sess, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrUnauthorized) {
			return "", "", fmt.Errorf("invalid or expired refresh token: %w", domain.ErrUnauthorized)
		}
		return "", "", err
	}
	if sess.RefreshExpiresAt < time.Now().Unix() {
		return "", "", fmt.Errorf("refresh token expired: %w", domain.ErrUnauthorized)
	}
	newToken, err := token.NewRefreshToken()
	if err != nil {
		return "", "", err
	}
	newExpiry := time.Now().Add(s.refreshTokenDur).Unix()
	if err := s.sessions.RotateRefreshToken(ctx, sess.SessionID, newToken, newExpiry); err != nil {
		return "", "", err
	}
	acct, err := s.accounts.GetByEmail(ctx, sess.Email)
	if err != nil {
		return "", "", err
	}
	bearer, err := s.signer.Sign(acct.AccountID, acct.Email, sess.SessionID)
	if err != nil {
		return "", "", err
	}
	return bearer, newToken, nil
}

package http

import (
	"context"

	"github.com/go-otp-auth/internal/domain"
	jwtinfra "github.com/go-otp-auth/internal/infrastructure/jwt"
	"github.com/go-otp-auth/internal/infrastructure/smtp"
	"github.com/go-otp-auth/internal/infrastructure/sns"
)

// AccountRepository is the minimal interface the router requires from the
// account store.
type AccountRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	Create(ctx context.Context, a *domain.Account) error
	RecordFailedAttempt(ctx context.Context, email string) error
	ResetAttempts(ctx context.Context, email string) error
}

// PendingVerificationRepository is the minimal interface the router requires
// from the pending-verification store.
type PendingVerificationRepository interface {
	Replace(ctx context.Context, p *domain.PendingVerification) error
	GetByEmail(ctx context.Context, email string) (*domain.PendingVerification, error)
	Delete(ctx context.Context, email string) error
	RecordFailedAttempt(ctx context.Context, email string) error
	ResetAttempts(ctx context.Context, email string) error
}

// SessionRepository is the minimal interface the router requires from the
// session store.
type SessionRepository interface {
	Put(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error)
	RotateRefreshToken(ctx context.Context, sessionID, newToken string, newExpiry int64) error
	Update(ctx context.Context, sessionID string, updates map[string]interface{}) error
}

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	AccountRepo AccountRepository
	PendingRepo PendingVerificationRepository
	SessionRepo SessionRepository
	Mailer      smtp.Mailer
	SMSSender   sns.SMSSender
	JWTProvider *jwtinfra.Provider
}

// Package auth orchestrates the two-phase account-creation flow: signup
// issues a pending verification and dispatches a TOTP passcode; confirming
// the passcode promotes the pending entry into a verified account; sign-in
// checks credentials against confirmed accounts. Both sign-in and OTP
// confirmation run behind independent failed-attempt lockouts.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-otp-auth/internal/domain"
	"github.com/go-otp-auth/internal/pkg/id"
	"github.com/go-otp-auth/internal/pkg/lockout"
	"github.com/go-otp-auth/internal/pkg/token"
	"github.com/go-otp-auth/internal/pkg/totp"
	"golang.org/x/crypto/bcrypt"
)

// pendingTTL bounds how long a signup may stay unconfirmed. It matches the
// passcode step size, so a dispatched passcode never outlives its entry.
const pendingTTL = 180 * time.Second

var (
	signInPolicy = lockout.Policy{MaxFailures: 2, Cooldown: 5 * time.Minute}
	otpPolicy    = lockout.Policy{MaxFailures: 3, Cooldown: 5 * time.Minute}
)

type accountStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	Create(ctx context.Context, a *domain.Account) error
	RecordFailedAttempt(ctx context.Context, email string) error
	ResetAttempts(ctx context.Context, email string) error
}

type pendingStore interface {
	Replace(ctx context.Context, p *domain.PendingVerification) error
	GetByEmail(ctx context.Context, email string) (*domain.PendingVerification, error)
	Delete(ctx context.Context, email string) error
	RecordFailedAttempt(ctx context.Context, email string) error
	ResetAttempts(ctx context.Context, email string) error
}

type sessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

type smsSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

type tokenSigner interface {
	Sign(accountID, email, sessionID string) (string, error)
}

// Result carries the tokens and session issued on successful verification or
// sign-in.
type Result struct {
	Bearer       string
	RefreshToken string
	Session      *domain.Session
}

type Service interface {
	Signup(ctx context.Context, req domain.SignupRequest) error
	ConfirmOTP(ctx context.Context, req domain.ConfirmOTPRequest) (*Result, error)
	SignIn(ctx context.Context, req domain.SignInRequest) (*Result, error)
}

type service struct {
	accounts        accountStore
	pendings        pendingStore
	sessions        sessionStore
	mailer          mailer
	smsSender       smsSender
	signer          tokenSigner
	otp             totp.Engine
	refreshTokenDur time.Duration
}

type ServiceDeps struct {
	AccountRepo     accountStore
	PendingRepo     pendingStore
	SessionRepo     sessionStore
	Mailer          mailer
	SMSSender       smsSender
	Signer          tokenSigner
	OTP             totp.Engine
	RefreshTokenDur time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		accounts:        deps.AccountRepo,
		pendings:        deps.PendingRepo,
		sessions:        deps.SessionRepo,
		mailer:          deps.Mailer,
		smsSender:       deps.SMSSender,
		signer:          deps.Signer,
		otp:             deps.OTP,
		refreshTokenDur: deps.RefreshTokenDur,
	}
}

// Signup stores a pending verification and dispatches a passcode. No account
// is created yet. Repeating a signup for the same email replaces the pending
// entry, which invalidates any previously dispatched passcode.
func (s *service) Signup(ctx context.Context, req domain.SignupRequest) error {
	if _, err := s.accounts.GetByEmail(ctx, req.Email); err == nil {
		return fmt.Errorf("email already registered: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	seed, err := totp.NewSeed()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	p := &domain.PendingVerification{
		Email:         req.Email,
		PasswordHash:  string(hash),
		OTPSeed:       seed,
		Phone:         req.Phone,
		ExpiresAt:     now.Add(pendingTTL).Unix(),
		LastAttemptAt: now,
		CreatedAt:     now,
	}
	if err := s.pendings.Replace(ctx, p); err != nil {
		return err
	}

	code, err := s.otp.Generate(seed)
	if err != nil {
		return err
	}
	// An undelivered passcode makes the signup useless, so a dispatch
	// failure fails the whole operation.
	return s.dispatch(ctx, req.Email, req.Phone, code)
}

func (s *service) dispatch(ctx context.Context, email string, phone *string, code string) error {
	if phone != nil && s.smsSender != nil {
		if err := s.smsSender.SendSMS(ctx, *phone, "Your verification code: "+code); err != nil {
			return fmt.Errorf("send verification sms: %w", err)
		}
		return nil
	}
	if err := s.mailer.SendEmail(email, "Your verification code", "Your OTP is: "+code); err != nil {
		return fmt.Errorf("send verification email: %w", err)
	}
	return nil
}

// ConfirmOTP checks the passcode against the pending entry's seed and, on
// success, promotes the entry into a verified account and opens a session.
func (s *service) ConfirmOTP(ctx context.Context, req domain.ConfirmOTPRequest) (*Result, error) {
	p, err := s.pendings.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("no signup pending for this email: %w", domain.ErrNotFound)
		}
		return nil, err
	}

	now := time.Now().UTC()
	// The store's TTL purge lags the expiry instant, so an entry can still
	// be readable past ExpiresAt. Check explicitly rather than trusting
	// purge timing.
	if p.Expired(now) {
		return nil, fmt.Errorf("invalid or expired passcode: %w", domain.ErrUnauthorized)
	}

	d := otpPolicy.Check(p.FailedAttempts, p.LastAttemptAt, now)
	if !d.Allow {
		return nil, &domain.RateLimitError{RetryAfter: d.RetryAfter}
	}
	if d.ResetFirst {
		if err := s.pendings.ResetAttempts(ctx, req.Email); err != nil {
			return nil, err
		}
	}

	if !s.otp.Verify(p.OTPSeed, req.OTP) {
		if err := s.pendings.RecordFailedAttempt(ctx, req.Email); err != nil {
			slog.Warn("failed to record otp attempt", "email", req.Email, "err", err)
		}
		return nil, fmt.Errorf("invalid or expired passcode: %w", domain.ErrUnauthorized)
	}

	acct := &domain.Account{
		AccountID:     id.New(),
		Email:         p.Email,
		PasswordHash:  p.PasswordHash,
		Status:        domain.StatusVerified,
		LastAttemptAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	// Conditional insert: of two concurrent confirmations for the same
	// email, exactly one creates the account.
	if err := s.accounts.Create(ctx, acct); err != nil {
		return nil, err
	}
	if err := s.pendings.Delete(ctx, req.Email); err != nil {
		// The TTL purge is the backstop; a leftover entry cannot be
		// confirmed again because the account now exists.
		slog.Warn("failed to delete pending verification", "email", req.Email, "err", err)
	}

	return s.openSession(ctx, acct)
}

// SignIn checks a password against a confirmed account. Unknown identities
// and wrong passwords produce the same outcome.
func (s *service) SignIn(ctx context.Context, req domain.SignInRequest) (*Result, error) {
	acct, err := s.accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, invalidCredentials()
		}
		return nil, err
	}

	now := time.Now().UTC()
	d := signInPolicy.Check(acct.FailedAttempts, acct.LastAttemptAt, now)
	if !d.Allow {
		return nil, &domain.RateLimitError{RetryAfter: d.RetryAfter}
	}
	if d.ResetFirst {
		if err := s.accounts.ResetAttempts(ctx, req.Email); err != nil {
			return nil, err
		}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(req.Password)); err != nil {
		if err := s.accounts.RecordFailedAttempt(ctx, req.Email); err != nil {
			slog.Warn("failed to record sign-in attempt", "email", req.Email, "err", err)
		}
		return nil, invalidCredentials()
	}

	return s.openSession(ctx, acct)
}

func (s *service) openSession(ctx context.Context, acct *domain.Account) (*Result, error) {
	refreshToken, err := token.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	sess := &domain.Session{
		SessionID:        id.New(),
		AccountID:        acct.AccountID,
		Email:            acct.Email,
		Enable:           true,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: now.Add(s.refreshTokenDur).Unix(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, err
	}
	bearer, err := s.signer.Sign(acct.AccountID, acct.Email, sess.SessionID)
	if err != nil {
		return nil, err
	}
	sess.Account = acct
	return &Result{Bearer: bearer, RefreshToken: refreshToken, Session: sess}, nil
}

func invalidCredentials() error {
	return fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
}

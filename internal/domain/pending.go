package domain

import "time"

// PendingVerification holds a not-yet-confirmed signup. Email is the
// partition key, so at most one entry per identity can exist at any instant;
// a repeated signup replaces the whole item and with it the OTP seed.
// ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type PendingVerification struct {
	Email          string    `json:"email" dynamodbav:"email"`
	PasswordHash   string    `json:"-" dynamodbav:"password_hash"`
	OTPSeed        string    `json:"-" dynamodbav:"otp_seed"`
	Phone          *string   `json:"-" dynamodbav:"phone"`
	ExpiresAt      int64     `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
	FailedAttempts int       `json:"-" dynamodbav:"failed_attempts"`
	LastAttemptAt  time.Time `json:"-" dynamodbav:"last_attempt_at"`
	CreatedAt      time.Time `json:"created" dynamodbav:"created_at"`
}

// Expired reports whether the entry is past its TTL. DynamoDB purges expired
// items with some lag, so callers must check this before trusting a read.
func (p *PendingVerification) Expired(now time.Time) bool {
	return now.Unix() >= p.ExpiresAt
}

package domain

import "time"

// AccountStatus tracks how far an account has progressed through verification.
// Accounts created through the OTP flow are always written as Verified; the
// other values exist for records migrated from older flows.
type AccountStatus string

const (
	StatusPending     AccountStatus = "PENDING"
	StatusNotVerified AccountStatus = "NOT_VERIFIED"
	StatusVerified    AccountStatus = "VERIFIED"
)

// Account is a confirmed account. Email is the partition key of the accounts
// table, so identity uniqueness is enforced by the store itself.
type Account struct {
	AccountID      string        `json:"id" dynamodbav:"account_id"`
	Email          string        `json:"email" dynamodbav:"email"`
	PasswordHash   string        `json:"-" dynamodbav:"password_hash"`
	Status         AccountStatus `json:"status" dynamodbav:"status"`
	FailedAttempts int           `json:"-" dynamodbav:"failed_attempts"`
	LastAttemptAt  time.Time     `json:"-" dynamodbav:"last_attempt_at"`
	CreatedAt      time.Time     `json:"created" dynamodbav:"created_at"`
	UpdatedAt      time.Time     `json:"updated" dynamodbav:"updated_at"`
}

type SignupRequest struct {
	Email           string  `json:"email" validate:"required,email"`
	Password        string  `json:"password" validate:"required,min=4,max=72"`
	PasswordConfirm string  `json:"password_confirm" validate:"required,eqfield=Password"`
	Phone           *string `json:"phone" validate:"omitempty,e164"`
}

type ConfirmOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Package totp implements RFC 6238 time-based one-time passcodes.
// Passcodes are derived from (seed, time step) only; nothing is persisted
// besides the seed, so verification always recomputes the expected value.
package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"time"
)

const seedBytes = 20

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewSeed generates a random base32-encoded OTP seed.
func NewSeed() (string, error) {
	raw := make([]byte, seedBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate otp seed: %w", err)
	}
	return b32.EncodeToString(raw), nil
}

// Engine derives and checks passcodes for a fixed step size, digit count and
// verification window.
type Engine struct {
	Step   time.Duration // time-step size
	Digits int           // passcode length
	Window int           // accepted skew in steps on either side of now
}

// NewEngine returns an engine with the default policy: 180-second steps,
// 6 digits, ±2 steps of accepted skew.
func NewEngine() Engine {
	return Engine{Step: 180 * time.Second, Digits: 6, Window: 2}
}

// Generate derives the passcode for the current time step.
func (e Engine) Generate(seed string) (string, error) {
	return e.GenerateAt(seed, time.Now())
}

// GenerateAt derives the passcode for the time step containing at.
func (e Engine) GenerateAt(seed string, at time.Time) (string, error) {
	key, err := b32.DecodeString(seed)
	if err != nil {
		return "", fmt.Errorf("decode otp seed: %w", err)
	}
	return hotp(key, at.Unix()/int64(e.Step/time.Second), e.Digits), nil
}

// Verify reports whether code is valid for seed at the current time,
// accepting codes within ±Window steps.
func (e Engine) Verify(seed, code string) bool {
	return e.VerifyAt(seed, code, time.Now())
}

// VerifyAt reports whether code is valid for seed at time at.
func (e Engine) VerifyAt(seed, code string, at time.Time) bool {
	if len(code) != e.Digits || !numeric(code) {
		return false
	}
	key, err := b32.DecodeString(seed)
	if err != nil {
		return false
	}
	base := at.Unix() / int64(e.Step/time.Second)
	for skew := -e.Window; skew <= e.Window; skew++ {
		counter := base + int64(skew)
		if counter < 0 {
			continue
		}
		want := hotp(key, counter, e.Digits)
		if subtle.ConstantTimeCompare([]byte(want), []byte(code)) == 1 {
			return true
		}
	}
	return false
}

// hotp computes the RFC 4226 HMAC-SHA1 code with dynamic truncation.
func hotp(key []byte, counter int64, digits int) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(counter))

	mac := hmac.New(sha1.New, key)
	_, _ = mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	bin := (int(sum[offset])&0x7f)<<24 |
		(int(sum[offset+1])&0xff)<<16 |
		(int(sum[offset+2])&0xff)<<8 |
		(int(sum[offset+3]) & 0xff)

	mod := 1
	for i := 0; i < digits; i++ {
		mod *= 10
	}
	return fmt.Sprintf("%0*d", digits, bin%mod)
}

func numeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

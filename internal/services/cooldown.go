package services

import "time"

// ResendCooldown is the minimum wait between verification-code sends for
// the same phone number. Business policy, not a provider limit.
const ResendCooldown = 2 * 24 * time.Hour

// CanSend reports whether a new verification code may be sent given the
// last recorded send. Pure function: nil lastSentAt means never sent.
func CanSend(lastSentAt *time.Time, now time.Time) bool {
	if lastSentAt == nil {
		return true
	}
	return now.Sub(*lastSentAt) > ResendCooldown
}

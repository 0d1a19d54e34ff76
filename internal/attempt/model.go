package attempt

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Outcome labels stored in the reason column
const (
	OutcomeSuccess       = "success"
	OutcomeNotAuthorized = "not_authorized"
	OutcomeMissingEmail  = "missing_email"
	OutcomeUnavailable   = "directory_unavailable"
	OutcomeRateLimited   = "rate_limited"
	OutcomeInternal      = "internal_error"
)

// Attempt represents the verification_attempts table
type Attempt struct {
	ID          int64     `db:"id" json:"id"`
	CodeHash    string    `db:"code_hash" json:"code_hash"`
	Email       string    `db:"email" json:"email"`
	IPAddress   string    `db:"ip_address" json:"ip_address"`
	Success     bool      `db:"success" json:"success"`
	Reason      string    `db:"reason" json:"reason"`
	AttemptedAt time.Time `db:"attempted_at" json:"attempted_at"`
}

// HashCode returns the stored form of an access code. Raw codes never reach
// the database.
func HashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

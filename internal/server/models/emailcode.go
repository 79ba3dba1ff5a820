package models

import "time"

// EmailAuthCode is the emailed half of the second factor. At most one live
// code exists per user; issuing a new one replaces the previous row.
type EmailAuthCode struct {
	UserID    string
	Code      string
	ExpiresAt time.Time
}

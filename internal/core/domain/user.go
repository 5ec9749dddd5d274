package domain

import (
	"errors"
	"time"
)

// EnrollmentStatus is the voice-enrollment state of a user.
type EnrollmentStatus string

const (
	EnrollmentUnenrolled EnrollmentStatus = "unenrolled"
	EnrollmentEnrolled   EnrollmentStatus = "enrolled"
)

var ErrUserNotFound = errors.New("user not found")
var ErrUserNotEnrolled = errors.New("user has no voiceprint")
var ErrAlreadyEnrolled = errors.New("user already enrolled")
var ErrUserLocked = errors.New("user is locked")

// User models a voice-biometric subject. The identifier is opaque to this
// core; account data (names, credentials) lives elsewhere.
type User struct {
	ID             string           `json:"id" bson:"_id"`
	Status         EnrollmentStatus `json:"status" bson:"status"`
	FailedAttempts int              `json:"failed_attempts" bson:"failed_attempts"`
	LockedUntil    *time.Time       `json:"locked_until,omitempty" bson:"locked_until,omitempty"`
	CreatedAt      time.Time        `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at" bson:"updated_at"`
}

// Locked reports whether the user is under a lockout cool-down at now.
func (u *User) Locked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// Enrolled reports whether the user has an active voiceprint.
func (u *User) Enrolled() bool {
	return u.Status == EnrollmentEnrolled
}

package dto

import "time"

type RegisterInput struct {
	Username   string
	Email      string
	Password   string
	FirstName  string
	LastName   string
	MiddleName string
	Age        int
}

type UserInfo struct {
	Username      string `json:"username"`
	Email         string `json:"email"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	MiddleName    string `json:"middle_name"`
	Age           int    `json:"age"`
	EmailVerified bool   `json:"email_verified"`
}

// PendingAccount is an unverified profile joined with its user's email,
// as scanned by the sweep query.
type PendingAccount struct {
	ProfileID          string     `db:"profile_id"`
	UserID             string     `db:"user_id"`
	Email              string     `db:"email"`
	VerificationToken  *string    `db:"verification_token"`
	VerificationSentAt *time.Time `db:"verification_sent_at"`
	ReminderSentAt     *time.Time `db:"reminder_sent_at"`
}

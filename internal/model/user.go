package model

import "time"

type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type UserProfile struct {
	ID                 string     `db:"id" json:"id"`
	UserID             string     `db:"user_id" json:"user_id"`
	FirstName          string     `db:"first_name" json:"first_name"`
	LastName           string     `db:"last_name" json:"last_name"`
	MiddleName         string     `db:"middle_name" json:"middle_name"`
	Age                int        `db:"age" json:"age"`
	EmailVerified      bool       `db:"email_verified" json:"email_verified"`
	VerificationToken  *string    `db:"verification_token" json:"-"` // Cleared once used
	VerificationSentAt *time.Time `db:"verification_sent_at" json:"-"`
	ReminderSentAt     *time.Time `db:"reminder_sent_at" json:"-"`
}

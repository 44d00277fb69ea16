package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/warestock/order-service/internal/account/dto"
	"github.com/warestock/order-service/internal/model"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) CreateUserWithProfile(ctx context.Context, user *model.User, profile *model.UserProfile) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insertUser := `
        INSERT INTO users (id, username, email, password_hash, is_active, created_at)
        VALUES (:id, :username, :email, :password_hash, :is_active, :created_at)
    `
	if _, err := tx.NamedExecContext(ctx, insertUser, user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	insertProfile := `
        INSERT INTO user_profiles (
            id, user_id, first_name, last_name, middle_name, age,
            email_verified, verification_token, verification_sent_at, reminder_sent_at
        )
        VALUES (
            :id, :user_id, :first_name, :last_name, :middle_name, :age,
            :email_verified, :verification_token, :verification_sent_at, :reminder_sent_at
        )
    `
	if _, err := tx.NamedExecContext(ctx, insertProfile, profile); err != nil {
		return fmt.Errorf("failed to create user profile: %w", err)
	}

	return tx.Commit()
}

func (r *PGRepository) FindUserByID(ctx context.Context, id string) (*model.User, error) {
	return r.findUser(ctx, `SELECT * FROM users WHERE id = $1 LIMIT 1`, id)
}

func (r *PGRepository) FindUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findUser(ctx, `SELECT * FROM users WHERE username = $1 LIMIT 1`, username)
}

func (r *PGRepository) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findUser(ctx, `SELECT * FROM users WHERE email = $1 LIMIT 1`, email)
}

func (r *PGRepository) findUser(ctx context.Context, query string, arg interface{}) (*model.User, error) {
	var user model.User
	err := r.DB.GetContext(ctx, &user, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *PGRepository) FindProfileByUserID(ctx context.Context, userID string) (*model.UserProfile, error) {
	var profile model.UserProfile
	err := r.DB.GetContext(ctx, &profile,
		`SELECT * FROM user_profiles WHERE user_id = $1 LIMIT 1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (r *PGRepository) FindProfileByToken(ctx context.Context, token string) (*model.UserProfile, error) {
	var profile model.UserProfile
	err := r.DB.GetContext(ctx, &profile,
		`SELECT * FROM user_profiles WHERE verification_token = $1 AND email_verified = FALSE LIMIT 1`,
		token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (r *PGRepository) MarkVerified(ctx context.Context, profileID, token string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
        UPDATE user_profiles
        SET email_verified = TRUE, verification_token = NULL
        WHERE id = $1 AND verification_token = $2 AND email_verified = FALSE
    `, profileID, token)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *PGRepository) FindPendingAccounts(ctx context.Context) ([]dto.PendingAccount, error) {
	var pending []dto.PendingAccount
	query := `
        SELECT p.id AS profile_id,
               u.id AS user_id,
               u.email AS email,
               p.verification_token,
               p.verification_sent_at,
               p.reminder_sent_at
        FROM user_profiles p
        JOIN users u ON u.id = p.user_id
        WHERE p.email_verified = FALSE AND u.is_active = TRUE
    `
	err := r.DB.SelectContext(ctx, &pending, query)
	return pending, err
}

func (r *PGRepository) MarkReminderSent(ctx context.Context, profileID string, at time.Time) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
        UPDATE user_profiles
        SET reminder_sent_at = $1
        WHERE id = $2 AND reminder_sent_at IS NULL AND email_verified = FALSE
    `, at, profileID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *PGRepository) DeactivateIfUnverified(ctx context.Context, profileID string) (bool, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	// Lock the profile row so a concurrent Verify for the same account
	// cannot slip between the check and the deactivation.
	var profile model.UserProfile
	err = tx.GetContext(ctx, &profile,
		`SELECT * FROM user_profiles WHERE id = $1 FOR UPDATE`, profileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	if profile.EmailVerified {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET is_active = FALSE WHERE id = $1`, profile.UserID); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

package account

import (
	"context"
	"time"

	"github.com/warestock/order-service/internal/account/dto"
	"github.com/warestock/order-service/internal/model"
)

type Repository interface {
	// CreateUserWithProfile persists the user and its profile in one
	// transaction; a user never exists without a profile.
	CreateUserWithProfile(ctx context.Context, user *model.User, profile *model.UserProfile) error

	FindUserByID(ctx context.Context, id string) (*model.User, error)
	FindUserByUsername(ctx context.Context, username string) (*model.User, error)
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	FindProfileByUserID(ctx context.Context, userID string) (*model.UserProfile, error)
	FindProfileByToken(ctx context.Context, token string) (*model.UserProfile, error)

	// MarkVerified flips the profile to verified and burns the token.
	// Returns false when the token was already used or the profile is
	// verified, so callers can treat it as a failed verification.
	MarkVerified(ctx context.Context, profileID, token string) (bool, error)

	// FindPendingAccounts returns unverified, still-active accounts joined
	// with their user's email for the sweep.
	FindPendingAccounts(ctx context.Context) ([]dto.PendingAccount, error)

	// MarkReminderSent stamps reminder_sent_at once; returns false if a
	// reminder was already recorded or the account verified meanwhile.
	MarkReminderSent(ctx context.Context, profileID string, at time.Time) (bool, error)

	// DeactivateIfUnverified re-checks the verified flag under a row lock
	// and deactivates the user only if still unverified. Returns whether
	// the account was deactivated.
	DeactivateIfUnverified(ctx context.Context, profileID string) (bool, error)
}

package account

import (
	"context"
	"time"

	"github.com/warestock/order-service/internal/account/dto"
	"github.com/warestock/order-service/internal/model"
)

type UseCase interface {
	Register(ctx context.Context, input *dto.RegisterInput) (*model.UserProfile, error)

	// Verify consumes a verification token and returns an API token for
	// the now-verified account.
	Verify(ctx context.Context, token string) (string, error)

	Login(ctx context.Context, username, password string) (string, error)
	GetUserInfo(ctx context.Context, userID string) (*dto.UserInfo, error)

	// Sweep evaluates all pending accounts against the reminder and
	// deactivation windows. Invoked on a timer.
	Sweep(ctx context.Context, now time.Time) error
}

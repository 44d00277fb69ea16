package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/warestock/order-service/internal/account"
	"github.com/warestock/order-service/internal/account/dto"
	"github.com/warestock/order-service/internal/apperrors"
	"github.com/warestock/order-service/internal/auth"
	"github.com/warestock/order-service/internal/model"
	"github.com/warestock/order-service/internal/notification"
	"github.com/warestock/order-service/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	SiteURL         string
	ReminderAfter   time.Duration
	DeactivateAfter time.Duration
}

type accountUseCase struct {
	repo       account.Repository
	dispatcher notification.Dispatcher
	tokens     *auth.TokenManager
	cfg        Config
	logger     logger.ZapLogger
}

func NewAccountUseCase(
	repo account.Repository,
	dispatcher notification.Dispatcher,
	tokens *auth.TokenManager,
	cfg Config,
	log logger.ZapLogger,
) account.UseCase {
	return &accountUseCase{
		repo:       repo,
		dispatcher: dispatcher,
		tokens:     tokens,
		cfg:        cfg,
		logger:     log,
	}
}

func (uc *accountUseCase) Register(ctx context.Context, input *dto.RegisterInput) (*model.UserProfile, error) {
	if input.Username == "" || input.Email == "" || input.Password == "" {
		return nil, fmt.Errorf("username, email and password are required: %w", apperrors.ErrInvalidInput)
	}

	if existing, err := uc.repo.FindUserByUsername(ctx, input.Username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, fmt.Errorf("username %s already taken: %w", input.Username, apperrors.ErrInvalidInput)
	}
	if existing, err := uc.repo.FindUserByEmail(ctx, input.Email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, fmt.Errorf("email %s already registered: %w", input.Email, apperrors.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	token := uuid.New().String()

	user := &model.User{
		ID:           uuid.New().String(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hash),
		IsActive:     true,
		CreatedAt:    now,
	}
	profile := &model.UserProfile{
		ID:                 uuid.New().String(),
		UserID:             user.ID,
		FirstName:          input.FirstName,
		LastName:           input.LastName,
		MiddleName:         input.MiddleName,
		Age:                input.Age,
		EmailVerified:      false,
		VerificationToken:  &token,
		VerificationSentAt: &now,
	}

	if err := uc.repo.CreateUserWithProfile(ctx, user, profile); err != nil {
		return nil, err
	}

	// Registration is committed; the email is best-effort.
	err = uc.dispatcher.Send(ctx, notification.TemplateVerification, user.Email, map[string]string{
		"verification_url": uc.verificationURL(token),
	})
	if err != nil {
		uc.logger.Warn("failed to dispatch verification email",
			zap.String("user_id", user.ID), zap.Error(err))
	}

	uc.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("username", user.Username))
	return profile, nil
}

func (uc *accountUseCase) Verify(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", apperrors.ErrInvalidOrExpiredToken
	}

	profile, err := uc.repo.FindProfileByToken(ctx, token)
	if err != nil {
		return "", err
	}
	if profile == nil {
		return "", apperrors.ErrInvalidOrExpiredToken
	}

	// Past the deactivation window the token is dead even if the sweep
	// has not caught up yet.
	if profile.VerificationSentAt == nil ||
		time.Since(*profile.VerificationSentAt) >= uc.cfg.DeactivateAfter {
		return "", apperrors.ErrInvalidOrExpiredToken
	}

	ok, err := uc.repo.MarkVerified(ctx, profile.ID, token)
	if err != nil {
		return "", err
	}
	if !ok {
		// Lost a race with another verify or the sweep.
		return "", apperrors.ErrInvalidOrExpiredToken
	}

	uc.logger.Info("email verified", zap.String("user_id", profile.UserID))
	return uc.tokens.Generate(profile.UserID)
}

func (uc *accountUseCase) Login(ctx context.Context, username, password string) (string, error) {
	user, err := uc.repo.FindUserByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", apperrors.ErrAccountInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", apperrors.ErrInvalidCredentials
	}

	profile, err := uc.repo.FindProfileByUserID(ctx, user.ID)
	if err != nil {
		return "", err
	}
	if profile == nil || !profile.EmailVerified {
		return "", apperrors.ErrUnauthorized
	}

	return uc.tokens.Generate(user.ID)
}

func (uc *accountUseCase) GetUserInfo(ctx context.Context, userID string) (*dto.UserInfo, error) {
	user, err := uc.repo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrNotFound
	}

	profile, err := uc.repo.FindProfileByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, apperrors.ErrNotFound
	}

	return &dto.UserInfo{
		Username:      user.Username,
		Email:         user.Email,
		FirstName:     profile.FirstName,
		LastName:      profile.LastName,
		MiddleName:    profile.MiddleName,
		Age:           profile.Age,
		EmailVerified: profile.EmailVerified,
	}, nil
}

func (uc *accountUseCase) Sweep(ctx context.Context, now time.Time) error {
	pending, err := uc.repo.FindPendingAccounts(ctx)
	if err != nil {
		return err
	}

	for _, acc := range pending {
		if acc.VerificationSentAt == nil {
			continue
		}
		elapsed := now.Sub(*acc.VerificationSentAt)

		switch {
		case elapsed >= uc.cfg.DeactivateAfter:
			deactivated, err := uc.repo.DeactivateIfUnverified(ctx, acc.ProfileID)
			if err != nil {
				uc.logger.Error("sweep: failed to deactivate account",
					zap.String("user_id", acc.UserID), zap.Error(err))
				continue
			}
			if deactivated {
				uc.logger.Info("sweep: deactivated unverified account",
					zap.String("user_id", acc.UserID))
			}

		case elapsed >= uc.cfg.ReminderAfter && acc.ReminderSentAt == nil:
			// Stamp before sending so the reminder goes out at most once.
			stamped, err := uc.repo.MarkReminderSent(ctx, acc.ProfileID, now)
			if err != nil {
				uc.logger.Error("sweep: failed to stamp reminder",
					zap.String("user_id", acc.UserID), zap.Error(err))
				continue
			}
			if !stamped {
				continue
			}

			token := ""
			if acc.VerificationToken != nil {
				token = *acc.VerificationToken
			}
			err = uc.dispatcher.Send(ctx, notification.TemplateVerificationReminder, acc.Email, map[string]string{
				"verification_url": uc.verificationURL(token),
			})
			if err != nil {
				uc.logger.Warn("sweep: failed to dispatch reminder",
					zap.String("user_id", acc.UserID), zap.Error(err))
			}
		}
	}

	return nil
}

func (uc *accountUseCase) verificationURL(token string) string {
	return fmt.Sprintf("%s/verify-email/%s", uc.cfg.SiteURL, token)
}

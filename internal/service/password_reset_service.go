package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"kawanumkm/internal/database"
	"kawanumkm/internal/metrics"
	"kawanumkm/internal/repository"
	"kawanumkm/internal/security"
	"kawanumkm/internal/validation"
)

// PasswordResetService issues, verifies and redeems password reset tokens
type PasswordResetService struct {
	db         *database.DB
	hasher     *security.PasswordHasher
	digester   *security.ResetTokenDigester
	mailer     Mailer
	ttl        time.Duration
	appBaseURL string
	now        func() time.Time
	log        *zap.Logger
}

// NewPasswordResetService creates a new password reset service
func NewPasswordResetService(
	db *database.DB,
	hasher *security.PasswordHasher,
	digester *security.ResetTokenDigester,
	mailer Mailer,
	ttl time.Duration,
	appBaseURL string,
	log *zap.Logger,
) *PasswordResetService {
	return &PasswordResetService{
		db:         db,
		hasher:     hasher,
		digester:   digester,
		mailer:     mailer,
		ttl:        ttl,
		appBaseURL: appBaseURL,
		now:        func() time.Time { return time.Now().UTC() },
		log:        log.Named("password_reset"),
	}
}

// ResetLink builds the URL the account holder follows to choose a new password
func (s *PasswordResetService) ResetLink(token string) string {
	return s.appBaseURL + "/reset-password?token=" + url.QueryEscape(token)
}

// IssueResetToken creates a fresh token for the account, replacing any
// previous ones. Only the token's digest is stored.
func (s *PasswordResetService) IssueResetToken(ctx context.Context, accountID int64) (string, error) {
	token, err := security.GenerateResetToken()
	if err != nil {
		return "", err
	}
	digest := s.digester.Digest(token)
	now := s.now()

	err = s.db.WithTx(ctx, func(ctx context.Context, tx database.DBTX) error {
		// Concurrent issuers for one account queue here, so each sees the
		// token the previous one committed and deletes it
		if err := repository.NewAccountRepository(tx).LockAccount(ctx, accountID); err != nil {
			return err
		}
		tokens := repository.NewResetTokenRepository(tx)
		if _, err := tokens.DeleteForAccount(ctx, accountID); err != nil {
			return err
		}
		_, err := tokens.CreateToken(ctx, accountID, digest, now.Add(s.ttl), now)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to issue reset token: %w", err)
	}

	metrics.PasswordResetEventsTotal.WithLabelValues("issued").Inc()
	return token, nil
}

// VerifyResetToken reports whether token is currently redeemable and, if so,
// which account it belongs to. It never modifies state.
func (s *PasswordResetService) VerifyResetToken(ctx context.Context, token string) (int64, bool, error) {
	if token == "" {
		return 0, false, nil
	}

	stored, err := repository.NewResetTokenRepository(s.db).GetByDigest(ctx, s.digester.Digest(token))
	if err != nil {
		return 0, false, err
	}
	if stored == nil || !stored.IsActive(s.now()) {
		return 0, false, nil
	}
	return stored.AccountID, true, nil
}

// RedeemResetToken sets a new password using a reset token. Marking the token
// used and storing the new hash happen in one transaction.
func (s *PasswordResetService) RedeemResetToken(ctx context.Context, token, newPassword string) error {
	if err := validation.ValidatePassword(newPassword); err != nil {
		return err
	}
	if token == "" {
		s.rejectReset(ErrTokenNotFound)
		return ErrTokenNotFound
	}

	passwordHash, err := s.hasher.HashPassword(newPassword)
	if err != nil {
		return err
	}
	digest := s.digester.Digest(token)

	var accountID int64
	err = s.db.WithTx(ctx, func(ctx context.Context, tx database.DBTX) error {
		tokens := repository.NewResetTokenRepository(tx)

		stored, err := tokens.GetByDigest(ctx, digest)
		if err != nil {
			return err
		}
		switch {
		case stored == nil:
			return ErrTokenNotFound
		case stored.Used:
			return ErrTokenAlreadyUsed
		case stored.IsExpired(s.now()):
			return ErrTokenExpired
		}

		marked, err := tokens.MarkUsed(ctx, stored.ID)
		if err != nil {
			return err
		}
		if !marked {
			return ErrTokenAlreadyUsed
		}

		err = repository.NewAccountRepository(tx).UpdatePasswordHash(ctx, stored.AccountID, passwordHash)
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("account %d: %w", stored.AccountID, ErrAccountNotFound)
		}
		if err != nil {
			return err
		}
		accountID = stored.AccountID
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrResetTokenInvalid) {
			s.rejectReset(err)
			return err
		}
		return fmt.Errorf("failed to redeem reset token: %w", err)
	}

	metrics.PasswordResetEventsTotal.WithLabelValues("redeemed").Inc()
	s.log.Info("password reset redeemed", zap.Int64("account_id", accountID))
	return nil
}

func (s *PasswordResetService) rejectReset(err error) {
	reason := resetRejectionReason(err)
	metrics.PasswordResetEventsTotal.WithLabelValues(reason).Inc()
	s.log.Info("password reset rejected", zap.String("reason", reason))
}

// RequestReset starts the reset flow for an email address. Unknown addresses
// succeed silently, and a delivery failure is logged but not returned, so the
// caller cannot tell whether an account exists.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	if email == "" {
		return validation.ValidationError{Field: "email", Message: "email is required"}
	}
	metrics.PasswordResetEventsTotal.WithLabelValues("requested").Inc()

	account, err := repository.NewAccountRepository(s.db).GetAccountByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		s.log.Debug("password reset requested for unknown email")
		return nil
	}

	token, err := s.IssueResetToken(ctx, account.ID)
	if err != nil {
		return err
	}

	if err := s.mailer.SendPasswordResetEmail(ctx, account.Email, account.Name, s.ResetLink(token)); err != nil {
		metrics.PasswordResetEventsTotal.WithLabelValues("email_failed").Inc()
		s.log.Error("failed to send password reset email", zap.Int64("account_id", account.ID), zap.Error(err))
		return nil
	}

	s.log.Info("password reset email sent", zap.Int64("account_id", account.ID))
	return nil
}

// CleanupExpired removes reset tokens that can no longer be redeemed
func (s *PasswordResetService) CleanupExpired(ctx context.Context) (int64, error) {
	n, err := repository.NewResetTokenRepository(s.db).DeleteExpiredOrUsed(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup reset tokens: %w", err)
	}
	if n > 0 {
		s.log.Info("expired reset tokens removed", zap.Int64("count", n))
	}
	return n, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"kawanumkm/internal/database"
	"kawanumkm/internal/metrics"
	"kawanumkm/internal/models"
	"kawanumkm/internal/repository"
	"kawanumkm/internal/security"
	"kawanumkm/internal/validation"
)

// AuthService handles account registration, login and profile management
type AuthService struct {
	db     *database.DB
	hasher *security.PasswordHasher
	tokens *security.TokenIssuer
	log    *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(db *database.DB, hasher *security.PasswordHasher, tokens *security.TokenIssuer, log *zap.Logger) *AuthService {
	return &AuthService{
		db:     db,
		hasher: hasher,
		tokens: tokens,
		log:    log.Named("auth"),
	}
}

// AuthResult is an authenticated account and its new session token
type AuthResult struct {
	Account   *models.Account
	Token     string
	ExpiresIn time.Duration
}

// Register creates a new account and signs it in
func (s *AuthService) Register(ctx context.Context, name, email, password, role string) (*AuthResult, error) {
	// Validate inputs
	if err := validation.ValidateName(name); err != nil {
		return nil, err
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	accountRole, err := validation.ParseRegistrationRole(role)
	if err != nil {
		return nil, err
	}
	email = validation.NormalizeEmail(email)

	accounts := repository.NewAccountRepository(s.db)

	// Check if email already exists
	existing, err := accounts.GetAccountByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	passwordHash, err := s.hasher.HashPassword(password)
	if err != nil {
		return nil, err
	}

	account, err := accounts.CreateAccount(ctx, normalizeName(name), email, passwordHash, accountRole)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(account.ID, account.Email, account.Role)
	if err != nil {
		return nil, err
	}

	s.log.Info("account registered", zap.Int64("account_id", account.ID), zap.String("role", string(account.Role)))
	return &AuthResult{Account: account, Token: token, ExpiresIn: s.tokens.Lifetime()}, nil
}

// Login authenticates an account by email and password
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" {
		return nil, validation.ValidationError{Field: "email", Message: "email is required"}
	}
	if password == "" {
		return nil, validation.ValidationError{Field: "password", Message: "password is required"}
	}

	account, err := repository.NewAccountRepository(s.db).GetAccountByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		s.hasher.CheckDummy(password)
		metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, ErrInvalidCredentials
	}

	if !s.hasher.CheckPassword(password, account.PasswordHash) {
		metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(account.ID, account.Email, account.Role)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	return &AuthResult{Account: account, Token: token, ExpiresIn: s.tokens.Lifetime()}, nil
}

// Profile returns the caller's account with activity counts
func (s *AuthService) Profile(ctx context.Context, id models.Identity) (*models.AccountProfile, error) {
	account, err := repository.NewAccountRepository(s.db).GetAccountByID(ctx, id.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("account %d: %w", id.AccountID, ErrNotFound)
	}

	favorites, err := repository.NewFavoriteRepository(s.db).CountByAccount(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	reviews, err := repository.NewReviewRepository(s.db).CountByAccount(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	return &models.AccountProfile{
		Account:       *account,
		FavoriteCount: favorites,
		ReviewCount:   reviews,
	}, nil
}

// UpdateProfile changes the caller's name and email
func (s *AuthService) UpdateProfile(ctx context.Context, id models.Identity, name, email string) (*models.AccountProfile, error) {
	if err := validation.ValidateName(name); err != nil {
		return nil, err
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	email = validation.NormalizeEmail(email)

	accounts := repository.NewAccountRepository(s.db)
	taken, err := accounts.EmailTakenByOther(ctx, email, id.AccountID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	err = accounts.UpdateProfile(ctx, id.AccountID, normalizeName(name), email)
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return nil, ErrEmailTaken
	case errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("account %d: %w", id.AccountID, ErrNotFound)
	case err != nil:
		return nil, err
	}

	return s.Profile(ctx, id)
}

// ChangePassword replaces the caller's password after checking the current one
func (s *AuthService) ChangePassword(ctx context.Context, id models.Identity, currentPassword, newPassword string) error {
	if currentPassword == "" {
		return validation.ValidationError{Field: "current_password", Message: "current password is required"}
	}
	if err := validation.ValidatePassword(newPassword); err != nil {
		return err
	}

	accounts := repository.NewAccountRepository(s.db)
	account, err := accounts.GetAccountByID(ctx, id.AccountID)
	if err != nil {
		return err
	}
	if account == nil {
		return fmt.Errorf("account %d: %w", id.AccountID, ErrNotFound)
	}

	if !s.hasher.CheckPassword(currentPassword, account.PasswordHash) {
		return validation.ValidationError{Field: "current_password", Message: "current password is incorrect"}
	}

	passwordHash, err := s.hasher.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := accounts.UpdatePasswordHash(ctx, account.ID, passwordHash); err != nil {
		return err
	}

	s.log.Info("password changed", zap.Int64("account_id", account.ID))
	return nil
}

// EnsureAdmin creates an administrator, or promotes and re-keys an existing
// account with the same email. It reports whether a new account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) (*models.Account, bool, error) {
	if err := validation.ValidateName(name); err != nil {
		return nil, false, err
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, false, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, false, err
	}
	email = validation.NormalizeEmail(email)

	passwordHash, err := s.hasher.HashPassword(password)
	if err != nil {
		return nil, false, err
	}

	var account *models.Account
	created := false
	err = s.db.WithTx(ctx, func(ctx context.Context, tx database.DBTX) error {
		accounts := repository.NewAccountRepository(tx)
		existing, err := accounts.GetAccountByEmail(ctx, email)
		if err != nil {
			return err
		}
		if existing == nil {
			account, err = accounts.CreateAccount(ctx, normalizeName(name), email, passwordHash, models.RoleAdmin)
			created = err == nil
			return err
		}
		if err := accounts.UpdateRole(ctx, existing.ID, models.RoleAdmin); err != nil {
			return err
		}
		if err := accounts.UpdatePasswordHash(ctx, existing.ID, passwordHash); err != nil {
			return err
		}
		existing.Role = models.RoleAdmin
		existing.PasswordHash = passwordHash
		account = existing
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to ensure admin: %w", err)
	}

	s.log.Info("admin ensured", zap.Int64("account_id", account.ID), zap.Bool("created", created))
	return account, created, nil
}

func normalizeName(name string) string {
	return strings.TrimSpace(name)
}

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"kawanumkm/internal/database"
	"kawanumkm/internal/models"
)

// BackupVersion is written into every export and checked on import
const BackupVersion = "1.0"

// BackupData represents the complete database backup structure. Reset tokens
// are short-lived and are not part of a backup.
type BackupData struct {
	Version    string           `json:"version"`
	ExportedAt time.Time        `json:"exported_at"`
	Accounts   []AccountBackup  `json:"accounts"`
	Businesses []BusinessBackup `json:"businesses"`
	Reviews    []ReviewBackup   `json:"reviews"`
	Favorites  []FavoriteBackup `json:"favorites"`
}

// AccountBackup represents an account record for backup
type AccountBackup struct {
	ID           int64       `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"password_hash"`
	Role         models.Role `json:"role"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// BusinessBackup represents a listing for backup
type BusinessBackup struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	ImagePath   string    `json:"image_path"`
	Latitude    *float64  `json:"latitude"`
	Longitude   *float64  `json:"longitude"`
	Address     string    `json:"address"`
	Phone       string    `json:"phone"`
	Hours       string    `json:"hours"`
	IsApproved  bool      `json:"is_approved"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ReviewBackup represents a review for backup
type ReviewBackup struct {
	ID         int64     `json:"id"`
	BusinessID int64     `json:"business_id"`
	AccountID  int64     `json:"account_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}

// FavoriteBackup represents a saved listing for backup
type FavoriteBackup struct {
	ID         int64     `json:"id"`
	AccountID  int64     `json:"account_id"`
	BusinessID int64     `json:"business_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// backupTables lists the tables in dependency order
var backupTables = []string{"accounts", "businesses", "reviews", "favorites"}

// BackupService handles database backup and restore operations
type BackupService struct {
	db  *database.DB
	log *zap.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB, log *zap.Logger) *BackupService {
	return &BackupService{db: db, log: log.Named("backup")}
}

// Export writes a complete backup of the directory to w as indented JSON
func (s *BackupService) Export(ctx context.Context, w io.Writer) (*BackupData, error) {
	backup := &BackupData{
		Version:    BackupVersion,
		ExportedAt: time.Now().UTC(),
	}

	if err := s.exportAccounts(ctx, backup); err != nil {
		return nil, fmt.Errorf("failed to export accounts: %w", err)
	}
	if err := s.exportBusinesses(ctx, backup); err != nil {
		return nil, fmt.Errorf("failed to export businesses: %w", err)
	}
	if err := s.exportReviews(ctx, backup); err != nil {
		return nil, fmt.Errorf("failed to export reviews: %w", err)
	}
	if err := s.exportFavorites(ctx, backup); err != nil {
		return nil, fmt.Errorf("failed to export favorites: %w", err)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}

	s.log.Info("database exported",
		zap.Int("accounts", len(backup.Accounts)),
		zap.Int("businesses", len(backup.Businesses)),
		zap.Int("reviews", len(backup.Reviews)),
		zap.Int("favorites", len(backup.Favorites)),
	)
	return backup, nil
}

// Import restores a backup read from r. With clear set, existing directory
// data is deleted first. Everything happens in one transaction.
func (s *BackupService) Import(ctx context.Context, r io.Reader, clear bool) (*BackupData, error) {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version != BackupVersion {
		return nil, fmt.Errorf("unsupported backup version %q", backup.Version)
	}

	s.log.Info("importing backup", zap.String("version", backup.Version), zap.Time("exported_at", backup.ExportedAt))

	err := s.db.WithTx(ctx, func(ctx context.Context, tx database.DBTX) error {
		if clear {
			if err := clearTables(ctx, tx); err != nil {
				return err
			}
		}
		// Import in order of dependencies
		if err := importAccounts(ctx, tx, backup.Accounts); err != nil {
			return fmt.Errorf("failed to import accounts: %w", err)
		}
		if err := importBusinesses(ctx, tx, backup.Businesses); err != nil {
			return fmt.Errorf("failed to import businesses: %w", err)
		}
		if err := importReviews(ctx, tx, backup.Reviews); err != nil {
			return fmt.Errorf("failed to import reviews: %w", err)
		}
		if err := importFavorites(ctx, tx, backup.Favorites); err != nil {
			return fmt.Errorf("failed to import favorites: %w", err)
		}
		return resetSequences(ctx, tx)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("database import completed")
	return &backup, nil
}

func (s *BackupService) exportAccounts(ctx context.Context, backup *BackupData) error {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, email, password_hash, role, created_at, updated_at FROM accounts ORDER BY id")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var a AccountBackup
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Role, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return err
		}
		backup.Accounts = append(backup.Accounts, a)
	}
	return rows.Err()
}

func (s *BackupService) exportBusinesses(ctx context.Context, backup *BackupData) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, name, category, description, image_path, latitude, longitude,
		       address, phone, hours, is_approved, created_at, updated_at
		FROM businesses ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var b BusinessBackup
		var lat, lng sql.NullFloat64
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.Name, &b.Category, &b.Description, &b.ImagePath, &lat, &lng,
			&b.Address, &b.Phone, &b.Hours, &b.IsApproved, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return err
		}
		if lat.Valid {
			b.Latitude = &lat.Float64
		}
		if lng.Valid {
			b.Longitude = &lng.Float64
		}
		backup.Businesses = append(backup.Businesses, b)
	}
	return rows.Err()
}

func (s *BackupService) exportReviews(ctx context.Context, backup *BackupData) error {
	rows, err := s.db.QueryContext(ctx, "SELECT id, business_id, account_id, rating, comment, created_at FROM reviews ORDER BY id")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var r ReviewBackup
		if err := rows.Scan(&r.ID, &r.BusinessID, &r.AccountID, &r.Rating, &r.Comment, &r.CreatedAt); err != nil {
			return err
		}
		backup.Reviews = append(backup.Reviews, r)
	}
	return rows.Err()
}

func (s *BackupService) exportFavorites(ctx context.Context, backup *BackupData) error {
	rows, err := s.db.QueryContext(ctx, "SELECT id, account_id, business_id, created_at FROM favorites ORDER BY id")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var f FavoriteBackup
		if err := rows.Scan(&f.ID, &f.AccountID, &f.BusinessID, &f.CreatedAt); err != nil {
			return err
		}
		backup.Favorites = append(backup.Favorites, f)
	}
	return rows.Err()
}

func clearTables(ctx context.Context, tx database.DBTX) error {
	// Delete in reverse order of dependencies
	if _, err := tx.ExecContext(ctx, "DELETE FROM password_reset_tokens"); err != nil {
		return fmt.Errorf("failed to clear table password_reset_tokens: %w", err)
	}
	for i := len(backupTables) - 1; i >= 0; i-- {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+backupTables[i]); err != nil {
			return fmt.Errorf("failed to clear table %s: %w", backupTables[i], err)
		}
	}
	return nil
}

func importAccounts(ctx context.Context, tx database.DBTX, accounts []AccountBackup) error {
	for _, a := range accounts {
		if !a.Role.IsValid() {
			return fmt.Errorf("account %d has unknown role %q", a.ID, a.Role)
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO accounts (id, name, email, password_hash, role, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			a.ID, a.Name, a.Email, a.PasswordHash, a.Role, a.CreatedAt.UTC(), a.UpdatedAt.UTC())
		if err != nil {
			return fmt.Errorf("failed to import account %d: %w", a.ID, err)
		}
	}
	return nil
}

func importBusinesses(ctx context.Context, tx database.DBTX, businesses []BusinessBackup) error {
	for _, b := range businesses {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO businesses (id, owner_id, name, category, description, image_path, latitude, longitude,
			                        address, phone, hours, is_approved, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			b.ID, b.OwnerID, b.Name, b.Category, b.Description, b.ImagePath, b.Latitude, b.Longitude,
			b.Address, b.Phone, b.Hours, b.IsApproved, b.CreatedAt.UTC(), b.UpdatedAt.UTC())
		if err != nil {
			return fmt.Errorf("failed to import business %d: %w", b.ID, err)
		}
	}
	return nil
}

func importReviews(ctx context.Context, tx database.DBTX, reviews []ReviewBackup) error {
	for _, r := range reviews {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO reviews (id, business_id, account_id, rating, comment, created_at) VALUES (?, ?, ?, ?, ?, ?)",
			r.ID, r.BusinessID, r.AccountID, r.Rating, r.Comment, r.CreatedAt.UTC())
		if err != nil {
			return fmt.Errorf("failed to import review %d: %w", r.ID, err)
		}
	}
	return nil
}

func importFavorites(ctx context.Context, tx database.DBTX, favorites []FavoriteBackup) error {
	for _, f := range favorites {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO favorites (id, account_id, business_id, created_at) VALUES (?, ?, ?, ?)",
			f.ID, f.AccountID, f.BusinessID, f.CreatedAt.UTC())
		if err != nil {
			return fmt.Errorf("failed to import favorite %d: %w", f.ID, err)
		}
	}
	return nil
}

// resetSequences moves PostgreSQL id sequences past the imported ids. SQLite
// and MySQL advance their counters on explicit inserts.
func resetSequences(ctx context.Context, tx database.DBTX) error {
	if tx.GetDialect().DriverName() != "postgres" {
		return nil
	}
	for _, table := range backupTables {
		query := fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE(MAX(id), 0) + 1, false) FROM %s", table, table)
		if _, err := tx.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to reset sequence for %s: %w", table, err)
		}
	}
	return nil
}

package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"kawanumkm/internal/database"
	"kawanumkm/internal/models"
	"kawanumkm/internal/repository"
	"kawanumkm/internal/security"
)

// DemoPassword is the password shared by all demo accounts
const DemoPassword = "password"

type demoAccount struct {
	name  string
	email string
	role  models.Role
}

var demoAccounts = []demoAccount{
	{name: "Pengguna Demo", email: "user@demo.com", role: models.RoleStandard},
	{name: "Pemilik UMKM Demo", email: "umkm@demo.com", role: models.RoleBusinessOwner},
	{name: "Admin Demo", email: "admin@demo.com", role: models.RoleAdmin},
}

func coord(v float64) *float64 { return &v }

var demoBusinesses = []models.Business{
	{
		Name:        "Geprek Mbak Rara",
		Category:    "Makanan",
		Description: "Ayam geprek dengan sambal level 1-10, nasi hangat, dan es teh manis.",
		Latitude:    coord(-6.2609),
		Longitude:   coord(106.7816),
		Address:     "Area UPN Veteran Jakarta",
		Phone:       "08123456789",
		Hours:       "09:00 - 21:00",
	},
	{
		Name:        "Bakso Manjur",
		Category:    "Makanan",
		Description: "Bakso urat dan bakso telur dengan kuah kaldu sapi.",
		Latitude:    coord(-6.2615),
		Longitude:   coord(106.7830),
		Address:     "Jl. Pondok Labu Raya",
		Phone:       "08129876543",
		Hours:       "10:00 - 22:00",
	},
	{
		Name:        "Es Teh Rejeki",
		Category:    "Minuman",
		Description: "Es teh jumbo, teh tarik, dan aneka minuman segar.",
		Latitude:    coord(-6.2598),
		Longitude:   coord(106.7805),
		Address:     "Depan Gerbang UPN Veteran Jakarta",
		Phone:       "08561234567",
		Hours:       "08:00 - 20:00",
	},
	{
		Name:        "Servis AC",
		Category:    "Jasa",
		Description: "Servis, cuci, dan isi freon AC rumah dan kantor.",
		Latitude:    coord(-6.2630),
		Longitude:   coord(106.7850),
		Address:     "Jl. RS Fatmawati",
		Phone:       "08571234567",
		Hours:       "24 Jam",
	},
}

const (
	demoReviewRating  = 5
	demoReviewComment = "Enak banget ayam gepreknya, sambalnya pedas mantap!"
)

// SeedService loads demonstration data into an empty directory
type SeedService struct {
	db     *database.DB
	hasher *security.PasswordHasher
	log    *zap.Logger
}

// NewSeedService creates a new seed service
func NewSeedService(db *database.DB, hasher *security.PasswordHasher, log *zap.Logger) *SeedService {
	return &SeedService{db: db, hasher: hasher, log: log.Named("seed")}
}

// SeedDemo creates the demo accounts, four approved listings owned by the
// demo business owner and one review. It reports false without changing
// anything when the demo data is already present.
func (s *SeedService) SeedDemo(ctx context.Context) (bool, error) {
	passwordHash, err := s.hasher.HashPassword(DemoPassword)
	if err != nil {
		return false, err
	}

	seeded := false
	err = s.db.WithTx(ctx, func(ctx context.Context, tx database.DBTX) error {
		accounts := repository.NewAccountRepository(tx)
		existing, err := accounts.GetAccountByEmail(ctx, demoAccounts[0].email)
		if err != nil {
			return err
		}
		if existing != nil {
			return nil
		}

		ids := make(map[models.Role]int64, len(demoAccounts))
		for _, da := range demoAccounts {
			account, err := accounts.CreateAccount(ctx, da.name, da.email, passwordHash, da.role)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", da.email, err)
			}
			ids[da.role] = account.ID
		}

		businesses := repository.NewBusinessRepository(tx)
		var firstID int64
		for i := range demoBusinesses {
			b := demoBusinesses[i]
			b.OwnerID = ids[models.RoleBusinessOwner]
			b.IsApproved = true
			if err := businesses.CreateBusiness(ctx, &b); err != nil {
				return fmt.Errorf("failed to create %s: %w", b.Name, err)
			}
			if i == 0 {
				firstID = b.ID
			}
		}

		_, err = repository.NewReviewRepository(tx).CreateReview(ctx, firstID, ids[models.RoleStandard], demoReviewRating, demoReviewComment)
		if err != nil {
			return fmt.Errorf("failed to create review: %w", err)
		}
		seeded = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to seed demo data: %w", err)
	}

	if seeded {
		s.log.Info("demo data seeded", zap.Int("accounts", len(demoAccounts)), zap.Int("businesses", len(demoBusinesses)))
	} else {
		s.log.Info("demo data already present")
	}
	return seeded, nil
}

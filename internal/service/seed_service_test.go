package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kawanumkm/internal/models"
)

func TestSeedDemo(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	seeded, err := env.seed.SeedDemo(ctx)
	require.NoError(t, err)
	assert.True(t, seeded)

	for _, tc := range []struct {
		email string
		role  models.Role
	}{
		{"user@demo.com", models.RoleStandard},
		{"umkm@demo.com", models.RoleBusinessOwner},
		{"admin@demo.com", models.RoleAdmin},
	} {
		result, err := env.auth.Login(ctx, tc.email, DemoPassword)
		require.NoError(t, err, tc.email)
		assert.Equal(t, tc.role, result.Account.Role)
	}

	listings, err := env.directory.ListApproved(ctx)
	require.NoError(t, err)
	require.Len(t, listings, 4)

	var geprek *models.Business
	for i := range listings {
		if listings[i].Name == "Geprek Mbak Rara" {
			geprek = &listings[i]
		}
	}
	require.NotNil(t, geprek)
	assert.Equal(t, "Makanan", geprek.Category)
	require.NotNil(t, geprek.Latitude)
	assert.InDelta(t, -6.2609, *geprek.Latitude, 1e-9)

	reviews, err := env.directory.ListReviews(ctx, geprek.ID, nil)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, 5, reviews[0].Rating)

	stats, err := env.directory.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalUsers)
	assert.Equal(t, 4, stats.TotalBusinesses)
	assert.Equal(t, 0, stats.PendingBusinesses)
	assert.Equal(t, 1, stats.BusinessOwners)
}

func TestSeedDemoIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.seed.SeedDemo(ctx)
	require.NoError(t, err)

	seeded, err := env.seed.SeedDemo(ctx)
	require.NoError(t, err)
	assert.False(t, seeded)

	listings, err := env.directory.ListApproved(ctx)
	require.NoError(t, err)
	assert.Len(t, listings, 4)
}

package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kawanumkm/internal/models"
	"kawanumkm/internal/repository"
	"kawanumkm/internal/validation"
)

func registerAccount(t *testing.T, env *testEnv, name, email, password string) *models.Account {
	t.Helper()
	result, err := env.auth.Register(context.Background(), name, email, password, "")
	require.NoError(t, err)
	return result.Account
}

func TestRequestResetSendsLink(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account := registerAccount(t, env, "Siti", "siti@example.com", "rahasia1")

	require.NoError(t, env.reset.RequestReset(ctx, "SITI@example.com"))

	mail := env.mailer.last(t)
	assert.Equal(t, "siti@example.com", mail.toEmail)
	assert.Equal(t, "Siti", mail.toName)
	assert.True(t, strings.HasPrefix(mail.resetLink, "https://kawan.test/reset-password?token="))

	accountID, ok, err := env.reset.VerifyResetToken(ctx, tokenFromLink(t, mail.resetLink))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, account.ID, accountID)
}

func TestRequestResetUnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.reset.RequestReset(context.Background(), "nobody@example.com"))
	assert.Zero(t, env.mailer.count())

	var vErr validation.ValidationError
	assert.ErrorAs(t, env.reset.RequestReset(context.Background(), ""), &vErr)
}

func TestRequestResetMailerFailureIsHidden(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account := registerAccount(t, env, "Siti", "siti@example.com", "rahasia1")
	env.mailer.err = errMailDown

	require.NoError(t, env.reset.RequestReset(ctx, "siti@example.com"))

	stored, err := repository.NewResetTokenRepository(env.db).ListForAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestIssueResetTokenReplacesPrevious(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account := registerAccount(t, env, "Siti", "siti@example.com", "rahasia1")

	first, err := env.reset.IssueResetToken(ctx, account.ID)
	require.NoError(t, err)
	second, err := env.reset.IssueResetToken(ctx, account.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	_, ok, err := env.reset.VerifyResetToken(ctx, first)
	require.NoError(t, err)
	assert.False(t, ok, "earlier token must be revoked")

	_, ok, err = env.reset.VerifyResetToken(ctx, second)
	require.NoError(t, err)
	assert.True(t, ok)

	stored, err := repository.NewResetTokenRepository(env.db).ListForAccount(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.NotEqual(t, second, stored[0].TokenDigest, "raw token must not be stored")

	err = env.reset.RedeemResetToken(ctx, first, "barubaru")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestIssueResetTokenConcurrently(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account := registerAccount(t, env, "Siti", "siti@example.com", "rahasia1")

	const issuers = 6
	tokens := make([]string, issuers)
	errs := make([]error, issuers)
	var wg sync.WaitGroup
	for i := 0; i < issuers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = env.reset.IssueResetToken(ctx, account.ID)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	stored, err := repository.NewResetTokenRepository(env.db).ListForAccount(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1, "only the last issued token may remain")

	active := 0
	for _, token := range tokens {
		_, ok, err := env.reset.VerifyResetToken(ctx, token)
		require.NoError(t, err)
		if ok {
			active++
		}
	}
	assert.Equal(t, 1, active)
}

func TestIssueResetTokenUnknownAccount(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.reset.IssueResetToken(context.Background(), 4242)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRedeemResetToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account := registerAccount(t, env, "Siti", "siti@example.com", "rahasia1")

	token, err := env.reset.IssueResetToken(ctx, account.ID)
	require.NoError(t, err)

	require.NoError(t, env.reset.RedeemResetToken(ctx, token, "barubaru"))

	_, err = env.auth.Login(ctx, "siti@example.com", "rahasia1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.auth.Login(ctx, "siti@example.com", "barubaru")
	require.NoError(t, err)

	_, ok, err := env.reset.VerifyResetToken(ctx, token)
	require.NoError(t, err)
	assert.False(t, ok)

	err = env.reset.RedeemResetToken(ctx, token, "lainlain")
	assert.ErrorIs(t, err, ErrTokenAlreadyUsed)
	assert.ErrorIs(t, err, ErrResetTokenInvalid)

	_, err = env.auth.Login(ctx, "siti@example.com", "barubaru")
	assert.NoError(t, err, "second redemption must not change the password")
}

func TestRedeemResetTokenRejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account := registerAccount(t, env, "Siti", "siti@example.com", "rahasia1")

	token, err := env.reset.IssueResetToken(ctx, account.ID)
	require.NoError(t, err)

	var vErr validation.ValidationError
	err = env.reset.RedeemResetToken(ctx, token, "123")
	require.ErrorAs(t, err, &vErr)
	_, ok, err := env.reset.VerifyResetToken(ctx, token)
	require.NoError(t, err)
	assert.True(t, ok, "weak password must not consume the token")

	assert.ErrorIs(t, env.reset.RedeemResetToken(ctx, "", "barubaru"), ErrTokenNotFound)
	assert.ErrorIs(t, env.reset.RedeemResetToken(ctx, "not-a-token", "barubaru"), ErrTokenNotFound)
	assert.ErrorIs(t, env.reset.RedeemResetToken(ctx, token+"x", "barubaru"), ErrTokenNotFound)
}

func TestResetTokenExpiry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account := registerAccount(t, env, "Siti", "siti@example.com", "rahasia1")

	token, err := env.reset.IssueResetToken(ctx, account.ID)
	require.NoError(t, err)

	env.reset.now = func() time.Time { return time.Now().UTC().Add(2 * time.Hour) }

	_, ok, err := env.reset.VerifyResetToken(ctx, token)
	require.NoError(t, err)
	assert.False(t, ok)

	err = env.reset.RedeemResetToken(ctx, token, "barubaru")
	assert.ErrorIs(t, err, ErrTokenExpired)

	_, err = env.auth.Login(ctx, "siti@example.com", "rahasia1")
	assert.NoError(t, err)
}

func TestRedeemResetTokenConcurrently(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	account := registerAccount(t, env, "Siti", "siti@example.com", "rahasia1")

	token, err := env.reset.IssueResetToken(ctx, account.ID)
	require.NoError(t, err)

	passwords := []string{"pertama1", "kedua222", "ketiga33", "keempat4"}
	errs := make([]error, len(passwords))
	var wg sync.WaitGroup
	for i, pw := range passwords {
		wg.Add(1)
		go func(i int, pw string) {
			defer wg.Done()
			errs[i] = env.reset.RedeemResetToken(ctx, token, pw)
		}(i, pw)
	}
	wg.Wait()

	winner := -1
	for i, err := range errs {
		if err == nil {
			require.Equal(t, -1, winner, "only one redemption may succeed")
			winner = i
			continue
		}
		assert.ErrorIs(t, err, ErrTokenAlreadyUsed)
	}
	require.NotEqual(t, -1, winner)

	_, err = env.auth.Login(ctx, "siti@example.com", passwords[winner])
	assert.NoError(t, err)
}

func TestCleanupExpired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	siti := registerAccount(t, env, "Siti", "siti@example.com", "rahasia1")
	budi := registerAccount(t, env, "Budi", "budi@example.com", "rahasia1")

	used, err := env.reset.IssueResetToken(ctx, siti.ID)
	require.NoError(t, err)
	require.NoError(t, env.reset.RedeemResetToken(ctx, used, "barubaru"))
	live, err := env.reset.IssueResetToken(ctx, budi.ID)
	require.NoError(t, err)

	n, err := env.reset.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, ok, err := env.reset.VerifyResetToken(ctx, live)
	require.NoError(t, err)
	assert.True(t, ok)

	env.reset.now = func() time.Time { return time.Now().UTC().Add(2 * time.Hour) }
	n, err = env.reset.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

package service

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"kawanumkm/internal/database"
	"kawanumkm/internal/database/dbtest"
	"kawanumkm/internal/security"
)

type sentMail struct {
	toEmail   string
	toName    string
	resetLink string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) SendPasswordResetEmail(_ context.Context, toEmail, toName, resetLink string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{toEmail: toEmail, toName: toName, resetLink: resetLink})
	return nil
}

func (m *fakeMailer) last(t *testing.T) sentMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "no email sent")
	return m.sent[len(m.sent)-1]
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

var errMailDown = errors.New("smtp down")

type testEnv struct {
	db        *database.DB
	tokens    *security.TokenIssuer
	auth      *AuthService
	reset     *PasswordResetService
	directory *DirectoryService
	seed      *SeedService
	backup    *BackupService
	mailer    *fakeMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := dbtest.New(t)
	log := zaptest.NewLogger(t)

	hasher, err := security.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := security.NewTokenIssuer("test-secret", 7*24*time.Hour)
	require.NoError(t, err)
	mailer := &fakeMailer{}

	return &testEnv{
		db:        db,
		tokens:    tokens,
		auth:      NewAuthService(db, hasher, tokens, log),
		reset:     NewPasswordResetService(db, hasher, security.NewResetTokenDigester("digest-secret"), mailer, time.Hour, "https://kawan.test", log),
		directory: NewDirectoryService(db, log),
		seed:      NewSeedService(db, hasher, log),
		backup:    NewBackupService(db, log),
		mailer:    mailer,
	}
}

// tokenFromLink pulls the raw reset token out of an emailed link
func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	token := u.Query().Get("token")
	require.NotEmpty(t, token)
	return token
}

package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/auth-server/internal/apierror"
	"github.com/dtroode/auth-server/internal/model"
	"github.com/dtroode/auth-server/internal/password"
	"github.com/dtroode/auth-server/internal/repository/sqlite"
	"github.com/dtroode/auth-server/internal/testutil"
	"github.com/dtroode/auth-server/internal/token"
)

const (
	testRefreshTTL = 24 * time.Hour
	testPassword   = "Secret1!pass"
)

type capturingNotifier struct {
	mu   sync.Mutex
	sent []model.Notification
}

func (n *capturingNotifier) Notify(_ context.Context, msg model.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
}

func (n *capturingNotifier) last(t *testing.T, kind model.NotificationKind) model.Notification {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.sent) - 1; i >= 0; i-- {
		if n.sent[i].Kind == kind {
			return n.sent[i]
		}
	}
	t.Fatalf("no %s notification sent", kind)
	return model.Notification{}
}

func (n *capturingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type scenario struct {
	auth     *Auth
	accounts *sqlite.AccountRepository
	ledger   *sqlite.RefreshTokenRepository
	tokens   *token.JWT
	notes    *capturingNotifier
}

func newScenario(t *testing.T) *scenario {
	t.Helper()

	conn, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	hasher, err := password.New(password.Params{Algorithm: password.AlgorithmArgon2id, Time: 1, MemKiB: 1024, Par: 1})
	require.NoError(t, err)

	tokens := token.NewJWT(map[model.TokenKind]token.KindConfig{
		model.TokenKindAccess:         {Secret: "access-secret", TTL: 15 * time.Minute},
		model.TokenKindRefresh:        {Secret: "refresh-secret", TTL: testRefreshTTL},
		model.TokenKindEmailVerify:    {Secret: "verify-secret", TTL: time.Hour},
		model.TokenKindForgotPassword: {Secret: "forgot-secret", TTL: time.Hour},
	})

	log := testutil.MakeNoopLogger()
	accounts := sqlite.NewAccountRepository(conn.DB)
	ledger := sqlite.NewRefreshTokenRepository(conn.DB)
	notes := &capturingNotifier{}
	ts := NewTokenService(tokens, ledger, log)

	return &scenario{
		auth:     NewAuth(accounts, ts, tokens, hasher, notes, log),
		accounts: accounts,
		ledger:   ledger,
		tokens:   tokens,
		notes:    notes,
	}
}

func (s *scenario) register(t *testing.T, email string) (uuid.UUID, model.TokenPair) {
	t.Helper()
	pair, err := s.auth.Register(context.Background(), model.RegisterParams{
		Email:       email,
		Password:    testPassword,
		Name:        "Ann",
		DateOfBirth: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	claims, err := s.tokens.Parse(pair.AccessToken, model.TokenKindAccess)
	require.NoError(t, err)
	return claims.Subject, pair
}

func (s *scenario) sessions(t *testing.T, userID uuid.UUID) []model.RefreshToken {
	t.Helper()
	rows, err := s.ledger.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	return rows
}

func TestScenario_RegisterStoresSession(t *testing.T) {
	s := newScenario(t)
	userID, pair := s.register(t, "ann@example.com")

	record, err := s.ledger.GetByToken(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, userID, record.UserID)
	assert.Equal(t, testRefreshTTL, record.ExpiresAt.Sub(record.IssuedAt))

	account, err := s.accounts.GetByID(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, model.VerifyStatusUnverified, account.VerifyStatus)
	assert.NotEqual(t, testPassword, account.PasswordHash)

	note := s.notes.last(t, model.NotificationVerifyEmail)
	require.NotNil(t, account.EmailVerifySecret)
	assert.Equal(t, *account.EmailVerifySecret, note.Token)
}

func TestScenario_RefreshIsSingleUseAndKeepsExpiry(t *testing.T) {
	s := newScenario(t)
	ctx := context.Background()
	_, pair := s.register(t, "ann@example.com")

	before, err := s.tokens.Parse(pair.RefreshToken, model.TokenKindRefresh)
	require.NoError(t, err)

	rotated, err := s.auth.RefreshToken(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	after, err := s.tokens.Parse(rotated.RefreshToken, model.TokenKindRefresh)
	require.NoError(t, err)
	assert.True(t, before.ExpiresAt.Equal(after.ExpiresAt))

	_, err = s.auth.RefreshToken(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, apierror.NewErrInvalidRefreshToken())

	_, err = s.auth.RefreshToken(ctx, rotated.RefreshToken)
	require.NoError(t, err)
}

func TestScenario_ConcurrentRefreshHasOneWinner(t *testing.T) {
	s := newScenario(t)
	_, pair := s.register(t, "ann@example.com")

	const workers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.auth.RefreshToken(context.Background(), pair.RefreshToken); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestScenario_ExpiredRefreshRejected(t *testing.T) {
	s := newScenario(t)
	userID, _ := s.register(t, "ann@example.com")

	past := time.Now().Add(-time.Minute)
	expired, err := s.tokens.Issue(model.TokenKindRefresh, userID, &past)
	require.NoError(t, err)

	_, err = s.auth.RefreshToken(context.Background(), expired)
	require.ErrorIs(t, err, apierror.NewErrTokenExpired(nil))
}

func TestScenario_LogoutRevokesOnlyThatSession(t *testing.T) {
	s := newScenario(t)
	ctx := context.Background()
	userID, first := s.register(t, "ann@example.com")
	assert.Len(t, s.sessions(t, userID), 1)

	second, err := s.auth.Login(ctx, "ann@example.com", testPassword)
	require.NoError(t, err)
	assert.Len(t, s.sessions(t, userID), 2)

	require.NoError(t, s.auth.Logout(ctx, userID, first.RefreshToken))

	rows := s.sessions(t, userID)
	require.Len(t, rows, 1)
	assert.Equal(t, second.RefreshToken, rows[0].Token)

	_, err = s.auth.RefreshToken(ctx, first.RefreshToken)
	require.ErrorIs(t, err, apierror.NewErrInvalidRefreshToken())
}

func TestScenario_LogoutWithSomeoneElsesToken(t *testing.T) {
	s := newScenario(t)
	ctx := context.Background()
	annID, _ := s.register(t, "ann@example.com")
	_, bob := s.register(t, "bob@example.com")

	err := s.auth.Logout(ctx, annID, bob.RefreshToken)
	require.ErrorIs(t, err, apierror.NewErrTokenMismatch())

	_, err = s.auth.RefreshToken(ctx, bob.RefreshToken)
	require.NoError(t, err)
}

func TestScenario_VerifyEmailIsSingleUse(t *testing.T) {
	s := newScenario(t)
	ctx := context.Background()
	userID, _ := s.register(t, "ann@example.com")
	verifyToken := s.notes.last(t, model.NotificationVerifyEmail).Token

	pair, err := s.auth.VerifyEmail(ctx, verifyToken)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.RefreshToken)

	account, err := s.accounts.GetByID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, model.VerifyStatusVerified, account.VerifyStatus)
	assert.Nil(t, account.EmailVerifySecret)

	_, err = s.auth.VerifyEmail(ctx, verifyToken)
	require.ErrorIs(t, err, apierror.NewErrAccountNotFound())

	res, err := s.auth.ResendVerifyEmail(ctx, userID)
	require.NoError(t, err)
	assert.True(t, res.AlreadyVerified)
}

func TestScenario_ResendReplacesPendingSecret(t *testing.T) {
	s := newScenario(t)
	ctx := context.Background()
	userID, _ := s.register(t, "ann@example.com")
	stale := s.notes.last(t, model.NotificationVerifyEmail).Token

	_, err := s.auth.ResendVerifyEmail(ctx, userID)
	require.NoError(t, err)
	fresh := s.notes.last(t, model.NotificationVerifyEmail).Token
	require.NotEqual(t, stale, fresh)

	_, err = s.auth.VerifyEmail(ctx, stale)
	require.ErrorIs(t, err, apierror.NewErrAccountNotFound())

	_, err = s.auth.VerifyEmail(ctx, fresh)
	require.NoError(t, err)
}

func TestScenario_ForgotPasswordUnknownEmail(t *testing.T) {
	s := newScenario(t)

	require.NoError(t, s.auth.ForgotPassword(context.Background(), "nobody@example.com"))
	assert.Zero(t, s.notes.count())
}

func TestScenario_ResetPassword(t *testing.T) {
	s := newScenario(t)
	ctx := context.Background()
	userID, _ := s.register(t, "ann@example.com")

	require.NoError(t, s.auth.ForgotPassword(ctx, "ann@example.com"))
	forgotToken := s.notes.last(t, model.NotificationResetPassword).Token

	require.NoError(t, s.auth.VerifyForgotPasswordToken(ctx, forgotToken))
	require.NoError(t, s.auth.ResetPassword(ctx, forgotToken, "Another2@pass"))

	account, err := s.accounts.GetByID(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, account.ForgotPasswordSecret)

	err = s.auth.VerifyForgotPasswordToken(ctx, forgotToken)
	require.ErrorIs(t, err, apierror.NewErrForgotPasswordTokenInvalid())
	err = s.auth.ResetPassword(ctx, forgotToken, "Third3#pass")
	require.ErrorIs(t, err, apierror.NewErrForgotPasswordTokenInvalid())

	_, err = s.auth.Login(ctx, "ann@example.com", "Another2@pass")
	require.NoError(t, err)
}

func TestScenario_ChangePassword(t *testing.T) {
	s := newScenario(t)
	ctx := context.Background()
	userID, _ := s.register(t, "ann@example.com")

	require.NoError(t, s.auth.ChangePassword(ctx, userID, testPassword, "Changed9$pass"))

	_, err := s.auth.Login(ctx, "ann@example.com", "Changed9$pass")
	require.NoError(t, err)

	_, err = s.auth.Login(ctx, "ann@example.com", testPassword)
	require.ErrorIs(t, err, apierror.NewErrInvalidCredentials())
}

func TestScenario_UpdateMe(t *testing.T) {
	s := newScenario(t)
	ctx := context.Background()
	annID, _ := s.register(t, "ann@example.com")
	bobID, _ := s.register(t, "bob@example.com")

	bio := "hello"
	_, err := s.auth.UpdateMe(ctx, annID, model.ProfilePatch{Bio: &bio})
	require.ErrorIs(t, err, apierror.NewErrAccountNotVerified())

	require.NoError(t, s.accounts.SetVerifyStatus(ctx, annID, model.VerifyStatusVerified))
	view, err := s.auth.UpdateMe(ctx, annID, model.ProfilePatch{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "hello", view.Bio)

	bob, err := s.auth.GetMe(ctx, bobID)
	require.NoError(t, err)
	_, err = s.auth.UpdateMe(ctx, annID, model.ProfilePatch{Username: &bob.Username})
	require.ErrorIs(t, err, apierror.NewErrUsernameConflict())
}

func TestScenario_ConcurrentRegisterSameEmail(t *testing.T) {
	s := newScenario(t)

	const workers = 2
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.auth.Register(context.Background(), model.RegisterParams{
				Email:    "race@example.com",
				Password: testPassword,
				Name:     "Race",
			})
		}(i)
	}
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case apierror.KindOf(err) == apierror.KindDuplicateEmail:
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, dup)
}

func TestScenario_SweepRemovesExpiredSessions(t *testing.T) {
	s := newScenario(t)
	userID, _ := s.register(t, "ann@example.com")

	sweeper := NewSweeper(s.ledger, time.Second, testutil.MakeNoopLogger())
	sweeper.now = func() time.Time { return time.Now().Add(testRefreshTTL + time.Minute) }

	n, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Empty(t, s.sessions(t, userID))
}

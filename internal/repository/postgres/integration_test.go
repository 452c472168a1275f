//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dtroode/auth-server/internal/model"
	repo "github.com/dtroode/auth-server/internal/repository/postgres"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "auth_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/auth_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func newAccount(email string) model.Account {
	id := uuid.New()
	return model.Account{
		ID:           id,
		Email:        email,
		Username:     model.DefaultUsername(id),
		PasswordHash: "hash",
		DateOfBirth:  time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestRepositories(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.Ping(ctx))

	accounts := repo.NewAccountRepository(conn.DB)
	tokens := repo.NewRefreshTokenRepository(conn.DB)

	t.Run("account_repository", func(t *testing.T) {
		a := newAccount("user@example.com")
		secret := "s1"
		a.EmailVerifySecret = &secret

		saved, err := accounts.Create(ctx, a)
		require.NoError(t, err)
		require.Equal(t, model.VerifyStatusUnverified, saved.VerifyStatus)

		_, err = accounts.Create(ctx, newAccount("user@example.com"))
		require.ErrorIs(t, err, model.ErrEmailTaken)

		exists, err := accounts.ExistsByEmail(ctx, a.Email)
		require.NoError(t, err)
		require.True(t, exists)

		_, err = accounts.GetByEmailVerifySecret(ctx, a.ID, "s1")
		require.NoError(t, err)
		require.NoError(t, accounts.ConsumeEmailVerifySecret(ctx, a.ID, "s1"))
		require.ErrorIs(t, accounts.ConsumeEmailVerifySecret(ctx, a.ID, "s1"), model.ErrNotFound)

		got, err := accounts.GetByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, model.VerifyStatusVerified, got.VerifyStatus)
		assert.Nil(t, got.EmailVerifySecret)

		other, err := accounts.Create(ctx, newAccount("other@example.com"))
		require.NoError(t, err)
		_, err = accounts.UpdateProfile(ctx, a.ID, model.ProfilePatch{Username: &other.Username})
		require.ErrorIs(t, err, model.ErrUsernameTaken)
	})

	t.Run("refresh_token_repository", func(t *testing.T) {
		a, err := accounts.Create(ctx, newAccount("tokens@example.com"))
		require.NoError(t, err)

		now := time.Now().Truncate(time.Second)
		live := model.RefreshToken{Token: "live", UserID: a.ID, IssuedAt: now, ExpiresAt: now.Add(time.Hour)}
		expired := model.RefreshToken{Token: "expired", UserID: a.ID, IssuedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
		require.NoError(t, tokens.Create(ctx, live))
		require.NoError(t, tokens.Create(ctx, expired))
		require.ErrorIs(t, tokens.Create(ctx, live), model.ErrTokenExists)

		_, err = tokens.GetByToken(ctx, "expired")
		require.ErrorIs(t, err, model.ErrNotFound)

		n, err := tokens.DeleteExpired(ctx, time.Now())
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		// concurrent rotations of the same token: exactly one wins
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				next := model.RefreshToken{Token: fmt.Sprintf("next-%d", i), UserID: a.ID, IssuedAt: now, ExpiresAt: live.ExpiresAt}
				if err := tokens.Rotate(ctx, "live", next); err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}(i)
		}
		wg.Wait()
		assert.Equal(t, 1, wins)

		list, err := tokens.ListByUser(ctx, a.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.NoError(t, tokens.DeleteByToken(ctx, list[0].Token))
		require.ErrorIs(t, tokens.DeleteByToken(ctx, list[0].Token), model.ErrNotFound)
	})
}

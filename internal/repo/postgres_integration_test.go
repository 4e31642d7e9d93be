//go:build integration

package repo

import (
	"context"
	"testing"
	"time"

	"github.com/abdusco/shortly/internal"
	"github.com/abdusco/shortly/internal/db"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func openPostgres(t *testing.T) *db.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("shortly"),
		tcpostgres.WithUsername("shortly"),
		tcpostgres.WithPassword("shortly"),
		tc.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	conn, err := db.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.Equal(t, db.DialectPostgres, conn.Dialect())
	return conn
}

func TestPostgres_LinkLifecycle(t *testing.T) {
	ctx := context.Background()
	conn := openPostgres(t)

	links := NewLinksRepo(conn)
	clicks := NewClicksRepo(conn)
	alice := createUser(t, NewUsersRepo(conn), "alice")

	link := newLink("promo", lo.ToPtr("promo"), &alice.ID)
	require.NoError(t, links.Create(ctx, link))
	require.ErrorIs(t, links.Create(ctx, newLink("promo", nil, nil)), ErrDuplicate)

	got, err := links.FindByCode(ctx, "promo")
	require.NoError(t, err)
	require.Equal(t, link.ID, got.ID)

	require.NoError(t, links.IncrementClicks(ctx, link.ID))
	require.NoError(t, clicks.Create(ctx, internal.Click{ID: uuid.NewString(), LinkID: link.ID, IP: "10.0.0.1"}))

	stats, err := links.StatsForOwner(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, internal.UserStats{TotalLinks: 1, TotalClicks: 1}, stats)

	require.NoError(t, links.Delete(ctx, link.ID))
	remaining, err := clicks.ListForLink(ctx, link.ID)
	require.NoError(t, err)
	require.Empty(t, remaining)
}

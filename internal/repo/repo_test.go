package repo

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/abdusco/shortly/internal"
	"github.com/abdusco/shortly/internal/db"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *db.DB {
	t.Helper()

	conn, err := db.Open(context.Background(), filepath.Join(t.TempDir(), "repo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func newLink(code string, alias, owner *string) *internal.Link {
	return &internal.Link{
		ID:          uuid.NewString(),
		OriginalURL: "https://example.com/" + code,
		ShortCode:   code,
		Alias:       alias,
		OwnerID:     owner,
	}
}

func createUser(t *testing.T, users *UsersRepo, name string) *internal.User {
	t.Helper()

	u := &internal.User{ID: uuid.NewString(), Username: name, PasswordHash: "hash"}
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

func TestLinksRepo_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	links := NewLinksRepo(openTestDB(t))

	plain := newLink("abcd1234", nil, nil)
	require.NoError(t, links.Create(ctx, plain))
	require.False(t, plain.CreatedAt.IsZero())

	aliased := newLink("promo", lo.ToPtr("promo"), nil)
	require.NoError(t, links.Create(ctx, aliased))

	got, err := links.FindByCode(ctx, "abcd1234")
	require.NoError(t, err)
	require.Equal(t, plain.ID, got.ID)
	require.Nil(t, got.Alias)
	require.Nil(t, got.OwnerID)

	got, err = links.FindByCode(ctx, "promo")
	require.NoError(t, err)
	require.Equal(t, aliased.ID, got.ID)
	require.Equal(t, "promo", *got.Alias)

	byID, err := links.GetByID(ctx, plain.ID)
	require.NoError(t, err)
	require.Equal(t, plain.OriginalURL, byID.OriginalURL)
	require.WithinDuration(t, plain.CreatedAt, byID.CreatedAt, time.Microsecond)

	_, err = links.FindByCode(ctx, "missing")
	require.ErrorIs(t, err, internal.ErrLinkNotFound)

	_, err = links.GetByID(ctx, uuid.NewString())
	require.ErrorIs(t, err, internal.ErrNotFound)
}

func TestLinksRepo_Uniqueness(t *testing.T) {
	ctx := context.Background()
	links := NewLinksRepo(openTestDB(t))

	require.NoError(t, links.Create(ctx, newLink("dup", nil, nil)))
	err := links.Create(ctx, newLink("dup", nil, nil))
	require.ErrorIs(t, err, ErrDuplicate)

	// several links without alias do not collide on NULL
	require.NoError(t, links.Create(ctx, newLink("x1", nil, nil)))
	require.NoError(t, links.Create(ctx, newLink("x2", nil, nil)))

	require.NoError(t, links.Create(ctx, newLink("a1", lo.ToPtr("same"), nil)))
	err = links.Create(ctx, newLink("a2", lo.ToPtr("same"), nil))
	require.ErrorIs(t, err, ErrDuplicate)

	taken, err := links.CodeTaken(ctx, "same")
	require.NoError(t, err)
	require.True(t, taken)

	taken, err = links.CodeTaken(ctx, "dup")
	require.NoError(t, err)
	require.True(t, taken)

	taken, err = links.CodeTaken(ctx, "free")
	require.NoError(t, err)
	require.False(t, taken)
}

func TestLinksRepo_ListByOwnerNewestFirst(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	links := NewLinksRepo(conn)
	users := NewUsersRepo(conn)

	alice := createUser(t, users, "alice")
	bob := createUser(t, users, "bob")

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, code := range []string{"first", "second", "third"} {
		l := newLink(code, nil, &alice.ID)
		l.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, links.Create(ctx, l))
	}
	require.NoError(t, links.Create(ctx, newLink("bobs", nil, &bob.ID)))

	got, err := links.ListByOwner(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"third", "second", "first"}, lo.Map(got, func(l *internal.Link, _ int) string {
		return l.ShortCode
	}))

	none, err := links.ListByOwner(ctx, uuid.NewString())
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestLinksRepo_IncrementAndOwnerStats(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	links := NewLinksRepo(conn)
	alice := createUser(t, NewUsersRepo(conn), "alice")

	a := newLink("aaa", nil, &alice.ID)
	b := newLink("bbb", nil, &alice.ID)
	require.NoError(t, links.Create(ctx, a))
	require.NoError(t, links.Create(ctx, b))

	require.NoError(t, links.IncrementClicks(ctx, a.ID))
	require.NoError(t, links.IncrementClicks(ctx, a.ID))
	require.NoError(t, links.IncrementClicks(ctx, b.ID))
	require.ErrorIs(t, links.IncrementClicks(ctx, uuid.NewString()), internal.ErrLinkNotFound)

	got, err := links.GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, got.ClickCount)

	stats, err := links.StatsForOwner(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, internal.UserStats{TotalLinks: 2, TotalClicks: 3}, stats)

	empty, err := links.StatsForOwner(ctx, uuid.NewString())
	require.NoError(t, err)
	require.Equal(t, internal.UserStats{}, empty)
}

func TestLinksRepo_DeleteRemovesClicks(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	links := NewLinksRepo(conn)
	clicks := NewClicksRepo(conn)

	doomed := newLink("doomed", nil, nil)
	kept := newLink("kept", nil, nil)
	require.NoError(t, links.Create(ctx, doomed))
	require.NoError(t, links.Create(ctx, kept))

	for range 3 {
		require.NoError(t, clicks.Create(ctx, internal.Click{ID: uuid.NewString(), LinkID: doomed.ID}))
	}
	require.NoError(t, clicks.Create(ctx, internal.Click{ID: uuid.NewString(), LinkID: kept.ID}))

	require.NoError(t, links.Delete(ctx, doomed.ID))

	remaining, err := clicks.ListForLink(ctx, doomed.ID)
	require.NoError(t, err)
	require.Empty(t, remaining)

	_, err = links.FindByCode(ctx, "doomed")
	require.ErrorIs(t, err, internal.ErrLinkNotFound)

	other, err := clicks.ListForLink(ctx, kept.ID)
	require.NoError(t, err)
	require.Len(t, other, 1)

	require.ErrorIs(t, links.Delete(ctx, doomed.ID), internal.ErrLinkNotFound)
}

func TestClicksRepo_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	links := NewLinksRepo(conn)
	clicks := NewClicksRepo(conn)

	link := newLink("clicky", nil, nil)
	require.NoError(t, links.Create(ctx, link))

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, ref := range []string{"a.example", "b.example", "c.example"} {
		require.NoError(t, clicks.Create(ctx, internal.Click{
			ID:        uuid.NewString(),
			LinkID:    link.ID,
			Timestamp: base.Add(time.Duration(i) * time.Second),
			IP:        "10.0.0.1",
			Referrer:  ref,
			Browser:   "Chrome",
			OS:        "Linux",
			Device:    "desktop",
		}))
	}

	got, err := clicks.ListForLink(ctx, link.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "c.example", got[0].Referrer)
	require.Equal(t, "a.example", got[2].Referrer)
	require.True(t, got[0].Timestamp.Equal(base.Add(2*time.Second)))
	require.Equal(t, "Chrome", got[1].Browser)

	// clicks for a missing link violate the foreign key
	err = clicks.Create(ctx, internal.Click{ID: uuid.NewString(), LinkID: uuid.NewString()})
	require.Error(t, err)
}

func TestUsersRepo(t *testing.T) {
	ctx := context.Background()
	users := NewUsersRepo(openTestDB(t))

	alice := createUser(t, users, "alice")
	err := users.Create(ctx, &internal.User{ID: uuid.NewString(), Username: "alice", PasswordHash: "x"})
	require.ErrorIs(t, err, ErrDuplicate)

	got, err := users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, alice.ID, got.ID)

	require.NoError(t, users.UpdatePasswordHash(ctx, alice.ID, "new-hash"))
	got, err = users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, "new-hash", got.PasswordHash)

	createUser(t, users, "bob")
	require.ErrorIs(t, users.UpdateUsername(ctx, alice.ID, "bob"), ErrDuplicate)
	require.NoError(t, users.UpdateUsername(ctx, alice.ID, "alicia"))

	_, err = users.GetByUsername(ctx, "alice")
	require.ErrorIs(t, err, internal.ErrUserNotFound)

	require.ErrorIs(t, users.UpdatePasswordHash(ctx, uuid.NewString(), "h"), internal.ErrUserNotFound)
}

package repo

import (
	"context"
	"fmt"

	"github.com/abdusco/shortly/internal"
	"github.com/abdusco/shortly/internal/db"
	"github.com/doug-martin/goqu/v9"
	"github.com/rs/zerolog/log"
)

var userColumns = []any{"id", "username", "password_hash", "created_at", "updated_at"}

type userRow struct {
	ID           string `db:"id"`
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"`
	CreatedAt    Date   `db:"created_at"`
	UpdatedAt    Date   `db:"updated_at"`
}

type UsersRepo struct {
	db *db.DB
}

func NewUsersRepo(db *db.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

func (r *UsersRepo) Create(ctx context.Context, user *internal.User) error {
	stamp := now().Time()
	user.CreatedAt, user.UpdatedAt = stamp, stamp

	row := userRow{
		ID:           user.ID,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		CreatedAt:    Date(stamp),
		UpdatedAt:    Date(stamp),
	}

	if _, err := r.db.Goqu().Insert("users").Rows(row).Executor().ExecContext(ctx); err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("insert user %q: %w", user.Username, ErrDuplicate)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	log.Info().Str("id", user.ID).Str("username", user.Username).Msg("user created")
	return nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (*internal.User, error) {
	return r.getBy(ctx, goqu.Ex{"id": id})
}

func (r *UsersRepo) GetByUsername(ctx context.Context, username string) (*internal.User, error) {
	return r.getBy(ctx, goqu.Ex{"username": username})
}

func (r *UsersRepo) getBy(ctx context.Context, where goqu.Ex) (*internal.User, error) {
	var row userRow
	found, err := r.db.Goqu().From("users").Select(userColumns...).Where(where).ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	if !found {
		return nil, internal.ErrUserNotFound
	}
	return row.toDomain(), nil
}

func (r *UsersRepo) UpdateUsername(ctx context.Context, id, username string) error {
	err := r.update(ctx, id, goqu.Record{"username": username, "updated_at": now()})
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("update username %q: %w", username, ErrDuplicate)
	}
	return err
}

func (r *UsersRepo) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	return r.update(ctx, id, goqu.Record{"password_hash": hash, "updated_at": now()})
}

func (r *UsersRepo) update(ctx context.Context, id string, rec goqu.Record) error {
	res, err := r.db.Goqu().Update("users").Set(rec).Where(goqu.Ex{"id": id}).Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("update user %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return internal.ErrUserNotFound
	}
	return nil
}

func (r userRow) toDomain() *internal.User {
	return &internal.User{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.Time(),
		UpdatedAt:    r.UpdatedAt.Time(),
	}
}

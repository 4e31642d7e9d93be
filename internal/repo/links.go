package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/abdusco/shortly/internal"
	"github.com/abdusco/shortly/internal/db"
	"github.com/doug-martin/goqu/v9"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// ErrDuplicate is returned when an insert or update hits a uniqueness constraint.
var ErrDuplicate = errors.New("duplicate key")

var linkColumns = []any{
	"id", "original_url", "short_code", "alias", "owner_id", "click_count", "created_at", "updated_at",
}

type linkRow struct {
	ID          string  `db:"id"`
	OriginalURL string  `db:"original_url"`
	ShortCode   string  `db:"short_code"`
	Alias       *string `db:"alias"`
	OwnerID     *string `db:"owner_id"`
	ClickCount  int64   `db:"click_count"`
	CreatedAt   Date    `db:"created_at"`
	UpdatedAt   Date    `db:"updated_at"`
}

type ownerStatsRow struct {
	TotalLinks  int64 `db:"total_links"`
	TotalClicks int64 `db:"total_clicks"`
}

type LinksRepo struct {
	db *db.DB
}

func NewLinksRepo(db *db.DB) *LinksRepo {
	return &LinksRepo{db: db}
}

// Create inserts the link. Id and timestamps are filled in when empty.
func (r *LinksRepo) Create(ctx context.Context, link *internal.Link) error {
	log.Debug().Str("short_code", link.ShortCode).Msg("creating link")

	stamp := now()
	if link.CreatedAt.IsZero() {
		link.CreatedAt = stamp.Time()
	}
	link.UpdatedAt = link.CreatedAt

	row := linkRow{
		ID:          link.ID,
		OriginalURL: link.OriginalURL,
		ShortCode:   link.ShortCode,
		Alias:       link.Alias,
		OwnerID:     link.OwnerID,
		ClickCount:  link.ClickCount,
		CreatedAt:   Date(link.CreatedAt),
		UpdatedAt:   Date(link.UpdatedAt),
	}

	_, err := r.db.Goqu().Insert("links").Rows(row).Executor().ExecContext(ctx)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("insert link %q: %w", link.ShortCode, ErrDuplicate)
		}
		return fmt.Errorf("insert link: %w", err)
	}

	log.Info().Str("id", link.ID).Str("short_code", link.ShortCode).Msg("link created successfully")
	return nil
}

func (r *LinksRepo) GetByID(ctx context.Context, id string) (*internal.Link, error) {
	query := r.db.Goqu().From("links").Select(linkColumns...).Where(goqu.Ex{"id": id})

	var row linkRow
	found, err := query.ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("fetch link %s: %w", id, err)
	}
	if !found {
		return nil, internal.ErrLinkNotFound
	}

	return row.toDomain(), nil
}

// FindByCode matches the value against both the short code and the alias.
func (r *LinksRepo) FindByCode(ctx context.Context, code string) (*internal.Link, error) {
	log.Debug().Str("code", code).Msg("fetching link by code")

	query := r.db.Goqu().From("links").
		Select(linkColumns...).
		Where(goqu.Or(
			goqu.C("short_code").Eq(code),
			goqu.C("alias").Eq(code),
		)).
		Order(goqu.C("created_at").Asc()).
		Limit(1)

	var row linkRow
	found, err := query.ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("fetch link by code: %w", err)
	}
	if !found {
		log.Debug().Str("code", code).Msg("link not found")
		return nil, internal.ErrLinkNotFound
	}

	return row.toDomain(), nil
}

// CodeTaken reports whether any link uses value as its short code or alias.
func (r *LinksRepo) CodeTaken(ctx context.Context, value string) (bool, error) {
	count, err := r.db.Goqu().From("links").
		Where(goqu.Or(
			goqu.C("short_code").Eq(value),
			goqu.C("alias").Eq(value),
		)).
		CountContext(ctx)
	if err != nil {
		return false, fmt.Errorf("count links by code: %w", err)
	}
	return count > 0, nil
}

func (r *LinksRepo) ListByOwner(ctx context.Context, ownerID string) ([]*internal.Link, error) {
	query := r.db.Goqu().From("links").
		Select(linkColumns...).
		Where(goqu.Ex{"owner_id": ownerID}).
		Order(goqu.C("created_at").Desc())

	var rows []linkRow
	if err := query.ScanStructsContext(ctx, &rows); err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}

	return lo.Map(rows, func(row linkRow, _ int) *internal.Link {
		return row.toDomain()
	}), nil
}

// IncrementClicks bumps the cached counter in a single statement.
func (r *LinksRepo) IncrementClicks(ctx context.Context, id string) error {
	res, err := r.db.Goqu().Update("links").
		Set(goqu.Record{
			"click_count": goqu.L("click_count + 1"),
			"updated_at":  now(),
		}).
		Where(goqu.Ex{"id": id}).
		Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("increment clicks: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return internal.ErrLinkNotFound
	}
	return nil
}

// Delete removes the link and its clicks in one transaction, clicks first.
func (r *LinksRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.db.Goqu().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}

	err = tx.Wrap(func() error {
		if _, err := tx.Delete("clicks").Where(goqu.Ex{"link_id": id}).Executor().ExecContext(ctx); err != nil {
			return fmt.Errorf("delete clicks: %w", err)
		}

		res, err := tx.Delete("links").Where(goqu.Ex{"id": id}).Executor().ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("delete link: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return internal.ErrLinkNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().Str("id", id).Msg("link deleted")
	return nil
}

func (r *LinksRepo) StatsForOwner(ctx context.Context, ownerID string) (internal.UserStats, error) {
	query := r.db.Goqu().From("links").
		Select(
			goqu.COUNT("*").As("total_links"),
			goqu.COALESCE(goqu.SUM("click_count"), 0).As("total_clicks"),
		).
		Where(goqu.Ex{"owner_id": ownerID})

	var row ownerStatsRow
	if _, err := query.ScanStructContext(ctx, &row); err != nil {
		return internal.UserStats{}, fmt.Errorf("owner stats: %w", err)
	}

	return internal.UserStats{TotalLinks: row.TotalLinks, TotalClicks: row.TotalClicks}, nil
}

func (r *linkRow) toDomain() *internal.Link {
	return &internal.Link{
		ID:          r.ID,
		OriginalURL: r.OriginalURL,
		ShortCode:   r.ShortCode,
		Alias:       r.Alias,
		OwnerID:     r.OwnerID,
		ClickCount:  r.ClickCount,
		CreatedAt:   r.CreatedAt.Time(),
		UpdatedAt:   r.UpdatedAt.Time(),
	}
}

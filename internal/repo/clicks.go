package repo

import (
	"context"
	"fmt"

	"github.com/abdusco/shortly/internal"
	"github.com/abdusco/shortly/internal/db"
	"github.com/doug-martin/goqu/v9"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

var clickColumns = []any{
	"id", "link_id", "clicked_at", "ip_address", "referrer", "user_agent", "browser", "os", "device",
}

type clickRow struct {
	ID        string `db:"id"`
	LinkID    string `db:"link_id"`
	ClickedAt Date   `db:"clicked_at"`
	IPAddress string `db:"ip_address"`
	Referrer  string `db:"referrer"`
	UserAgent string `db:"user_agent"`
	Browser   string `db:"browser"`
	OS        string `db:"os"`
	Device    string `db:"device"`
}

type ClicksRepo struct {
	db *db.DB
}

func NewClicksRepo(db *db.DB) *ClicksRepo {
	return &ClicksRepo{db: db}
}

func (r *ClicksRepo) Create(ctx context.Context, click internal.Click) error {
	log.Debug().Str("link_id", click.LinkID).Str("ip", click.IP).Msg("recording click")

	if click.Timestamp.IsZero() {
		click.Timestamp = now().Time()
	}

	row := clickRow{
		ID:        click.ID,
		LinkID:    click.LinkID,
		ClickedAt: Date(click.Timestamp),
		IPAddress: click.IP,
		Referrer:  click.Referrer,
		UserAgent: click.UserAgent,
		Browser:   click.Browser,
		OS:        click.OS,
		Device:    click.Device,
	}

	if _, err := r.db.Goqu().Insert("clicks").Rows(row).Executor().ExecContext(ctx); err != nil {
		return fmt.Errorf("insert click for link %s: %w", click.LinkID, err)
	}

	log.Debug().Str("link_id", click.LinkID).Msg("click recorded successfully")
	return nil
}

// ListForLink returns every click of the link, newest first.
func (r *ClicksRepo) ListForLink(ctx context.Context, linkID string) ([]internal.Click, error) {
	query := r.db.Goqu().From("clicks").
		Select(clickColumns...).
		Where(goqu.Ex{"link_id": linkID}).
		Order(goqu.C("clicked_at").Desc())

	var rows []clickRow
	if err := query.ScanStructsContext(ctx, &rows); err != nil {
		return nil, fmt.Errorf("list clicks for link %s: %w", linkID, err)
	}

	return lo.Map(rows, func(row clickRow, _ int) internal.Click {
		return row.toDomain()
	}), nil
}

func (r clickRow) toDomain() internal.Click {
	return internal.Click{
		ID:        r.ID,
		LinkID:    r.LinkID,
		Timestamp: r.ClickedAt.Time(),
		IP:        r.IPAddress,
		Referrer:  r.Referrer,
		UserAgent: r.UserAgent,
		Browser:   r.Browser,
		OS:        r.OS,
		Device:    r.Device,
	}
}

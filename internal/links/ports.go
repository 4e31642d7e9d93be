package links

import (
	"context"

	"github.com/abdusco/shortly/internal"
)

type LinkStore interface {
	Create(ctx context.Context, link *internal.Link) error
	GetByID(ctx context.Context, id string) (*internal.Link, error)
	FindByCode(ctx context.Context, code string) (*internal.Link, error)
	CodeTaken(ctx context.Context, value string) (bool, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*internal.Link, error)
	IncrementClicks(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	StatsForOwner(ctx context.Context, ownerID string) (internal.UserStats, error)
}

type ClickStore interface {
	Create(ctx context.Context, click internal.Click) error
	ListForLink(ctx context.Context, linkID string) ([]internal.Click, error)
}

// ClickRecorder accepts click events without blocking the caller.
type ClickRecorder interface {
	Record(click internal.Click)
}

// LinkCache holds resolved links by public code. Get returns nil, nil on a miss.
type LinkCache interface {
	Get(ctx context.Context, code string) (*internal.Link, error)
	Set(ctx context.Context, code string, link *internal.Link) error
	Delete(ctx context.Context, codes ...string) error
}

type noCache struct{}

func (noCache) Get(context.Context, string) (*internal.Link, error) { return nil, nil }
func (noCache) Set(context.Context, string, *internal.Link) error   { return nil }
func (noCache) Delete(context.Context, ...string) error             { return nil }

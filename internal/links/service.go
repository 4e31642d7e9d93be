package links

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abdusco/shortly/internal"
	"github.com/abdusco/shortly/internal/repo"
	"github.com/abdusco/shortly/internal/shortcode"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const autoShortCodeAttempts = 5

type Service struct {
	links    LinkStore
	clicks   ClickStore
	recorder ClickRecorder
	cache    LinkCache
	generate func(length int) (string, error)
}

type Option func(*Service)

// WithCache puts a cache in front of short code lookups on the redirect path.
func WithCache(cache LinkCache) Option {
	return func(s *Service) {
		if cache != nil {
			s.cache = cache
		}
	}
}

func WithGenerator(generate func(length int) (string, error)) Option {
	return func(s *Service) { s.generate = generate }
}

func NewService(links LinkStore, clicks ClickStore, recorder ClickRecorder, opts ...Option) *Service {
	s := &Service{
		links:    links,
		clicks:   clicks,
		recorder: recorder,
		cache:    noCache{},
		generate: shortcode.Generate,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateInput struct {
	OriginalURL string
	Alias       string
	// OwnerID is empty for anonymous links.
	OwnerID string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*internal.Link, error) {
	originalURL, err := NormalizeURL(in.OriginalURL)
	if err != nil {
		return nil, err
	}

	link := &internal.Link{
		ID:          uuid.NewString(),
		OriginalURL: originalURL,
	}
	if in.OwnerID != "" {
		owner := in.OwnerID
		link.OwnerID = &owner
	}

	alias := strings.TrimSpace(in.Alias)
	if alias == "" {
		return s.createWithGeneratedCode(ctx, link)
	}

	if err := ValidateAlias(alias); err != nil {
		return nil, err
	}

	taken, err := s.links.CodeTaken(ctx, alias)
	if err != nil {
		return nil, fmt.Errorf("links create: %w", err)
	}
	if taken {
		return nil, internal.ErrAliasTaken
	}

	link.ShortCode = alias
	link.Alias = &alias
	if err := s.links.Create(ctx, link); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, internal.ErrAliasTaken
		}
		return nil, fmt.Errorf("links create: %w", err)
	}

	return link, nil
}

func (s *Service) createWithGeneratedCode(ctx context.Context, link *internal.Link) (*internal.Link, error) {
	for attempt := range autoShortCodeAttempts {
		code, err := s.generate(shortcode.DefaultLength)
		if err != nil {
			return nil, fmt.Errorf("links create: %w", err)
		}

		link.ShortCode = code
		err = s.links.Create(ctx, link)
		if errors.Is(err, repo.ErrDuplicate) {
			log.Warn().Str("short_code", code).Int("attempt", attempt+1).Msg("short code collision, retrying")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("links create: %w", err)
		}

		return link, nil
	}

	return nil, internal.ErrShortCodeExhausted
}

func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]*internal.Link, error) {
	items, err := s.links.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("links list by owner: %w", err)
	}
	return items, nil
}

// Get returns the link if it is public or owned by callerID.
// An empty callerID stands for an anonymous caller.
func (s *Service) Get(ctx context.Context, id, callerID string) (*internal.Link, error) {
	link, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if link.OwnerID != nil && !link.IsOwnedBy(callerID) {
		return nil, internal.ErrNotOwner
	}
	return link, nil
}

// GetPublic returns the link without an ownership check.
func (s *Service) GetPublic(ctx context.Context, id string) (*internal.Link, error) {
	return s.getByID(ctx, id)
}

func (s *Service) getByID(ctx context.Context, id string) (*internal.Link, error) {
	// ids are uuids; anything else cannot exist
	if _, err := uuid.Parse(id); err != nil {
		return nil, internal.ErrLinkNotFound
	}

	link, err := s.links.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, internal.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("links get: %w", err)
	}
	return link, nil
}

// Statistics aggregates every recorded click of the link.
func (s *Service) Statistics(ctx context.Context, id, callerID string) (internal.LinkStatistics, error) {
	link, err := s.Get(ctx, id, callerID)
	if err != nil {
		return internal.LinkStatistics{}, err
	}

	clicks, err := s.clicks.ListForLink(ctx, link.ID)
	if err != nil {
		return internal.LinkStatistics{}, fmt.Errorf("links statistics: %w", err)
	}

	return Aggregate(clicks), nil
}

// Delete removes an owned link together with its clicks.
func (s *Service) Delete(ctx context.Context, id, callerID string) error {
	link, err := s.getByID(ctx, id)
	if err != nil {
		return err
	}

	if callerID == "" || !link.IsOwnedBy(callerID) {
		return internal.ErrNotOwner
	}

	if err := s.links.Delete(ctx, link.ID); err != nil {
		if errors.Is(err, internal.ErrNotFound) {
			return err
		}
		return fmt.Errorf("links delete: %w", err)
	}

	codes := []string{link.ShortCode}
	if link.Alias != nil {
		codes = append(codes, *link.Alias)
	}
	if err := s.cache.Delete(ctx, codes...); err != nil {
		log.Warn().Err(err).Str("id", link.ID).Msg("failed to evict deleted link from cache")
	}

	return nil
}

func (s *Service) UserStats(ctx context.Context, ownerID string) (internal.UserStats, error) {
	stats, err := s.links.StatsForOwner(ctx, ownerID)
	if err != nil {
		return internal.UserStats{}, fmt.Errorf("links user stats: %w", err)
	}
	return stats, nil
}

package links

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abdusco/shortly/internal"
	"github.com/abdusco/shortly/internal/shortcode"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Visit describes the client that followed a short link.
type Visit struct {
	IP        string
	Referrer  string
	UserAgent string
}

// Resolve maps a short code or alias to its destination, bumps the link's
// counter and hands a click event to the recorder. Failures to persist the
// click never reach the caller.
func (s *Service) Resolve(ctx context.Context, code string, visit Visit) (string, error) {
	if !shortcode.Valid(code) {
		return "", internal.ErrLinkNotFound
	}

	link, err := s.lookup(ctx, code)
	if err != nil {
		return "", err
	}

	if err := s.links.IncrementClicks(ctx, link.ID); err != nil {
		if errors.Is(err, internal.ErrNotFound) {
			// deleted after it was cached
			_ = s.cache.Delete(ctx, code)
			return "", internal.ErrLinkNotFound
		}
		return "", fmt.Errorf("links resolve: %w", err)
	}

	client := ParseClient(visit.UserAgent)
	s.recorder.Record(internal.Click{
		ID:        uuid.NewString(),
		LinkID:    link.ID,
		Timestamp: time.Now().UTC(),
		IP:        visit.IP,
		Referrer:  visit.Referrer,
		UserAgent: visit.UserAgent,
		Browser:   client.Browser,
		OS:        client.OS,
		Device:    client.Device,
	})

	log.Info().Str("code", code).Str("link_id", link.ID).Msg("resolved link")
	return link.OriginalURL, nil
}

func (s *Service) lookup(ctx context.Context, code string) (*internal.Link, error) {
	cached, err := s.cache.Get(ctx, code)
	if err != nil {
		log.Warn().Err(err).Str("code", code).Msg("link cache lookup failed")
	}
	if cached != nil {
		return cached, nil
	}

	link, err := s.links.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, internal.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("links resolve: %w", err)
	}

	if err := s.cache.Set(ctx, code, link); err != nil {
		log.Warn().Err(err).Str("code", code).Msg("failed to cache link")
	}
	return link, nil
}

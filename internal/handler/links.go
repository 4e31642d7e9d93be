package handler

import (
	"net/http"
	"time"

	"github.com/abdusco/shortly/internal"
	"github.com/abdusco/shortly/internal/auth"
	"github.com/abdusco/shortly/internal/links"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

type LinkHandler struct {
	links   *links.Service
	baseURL string
}

func NewLinkHandler(links *links.Service, baseURL string) *LinkHandler {
	return &LinkHandler{links: links, baseURL: baseURL}
}

type CreateLinkRequest struct {
	OriginalURL string `json:"originalUrl" validate:"required,max=2048"`
	Alias       string `json:"alias" validate:"omitempty,max=50"`
}

type LinkResponse struct {
	ID          string    `json:"id"`
	OriginalURL string    `json:"originalUrl"`
	ShortURL    string    `json:"shortUrl"`
	ShortCode   string    `json:"shortCode"`
	Alias       *string   `json:"alias"`
	Clicks      int64     `json:"clicks"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (h *LinkHandler) shortURL(link *internal.Link) string {
	return h.baseURL + "/" + link.PublicCode()
}

func (h *LinkHandler) toResponse(link *internal.Link) LinkResponse {
	return LinkResponse{
		ID:          link.ID,
		OriginalURL: link.OriginalURL,
		ShortURL:    h.shortURL(link),
		ShortCode:   link.ShortCode,
		Alias:       link.Alias,
		Clicks:      link.ClickCount,
		CreatedAt:   link.CreatedAt,
		UpdatedAt:   link.UpdatedAt,
	}
}

func (h *LinkHandler) CreateLink(c echo.Context) error {
	var req CreateLinkRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	link, err := h.links.Create(c.Request().Context(), links.CreateInput{
		OriginalURL: req.OriginalURL,
		Alias:       req.Alias,
		OwnerID:     auth.UserID(c),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, h.toResponse(link))
}

func (h *LinkHandler) ListUserLinks(c echo.Context) error {
	items, err := h.links.ListByOwner(c.Request().Context(), auth.UserID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, lo.Map(items, func(link *internal.Link, _ int) LinkResponse {
		return h.toResponse(link)
	}))
}

func (h *LinkHandler) Details(c echo.Context) error {
	link, err := h.links.Get(c.Request().Context(), c.Param("id"), auth.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.toResponse(link))
}

func (h *LinkHandler) Statistics(c echo.Context) error {
	stats, err := h.links.Statistics(c.Request().Context(), c.Param("id"), auth.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *LinkHandler) DeleteLink(c echo.Context) error {
	if err := h.links.Delete(c.Request().Context(), c.Param("id"), auth.UserID(c)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "link deleted"})
}

func (h *LinkHandler) UserStats(c echo.Context) error {
	stats, err := h.links.UserStats(c.Request().Context(), auth.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *LinkHandler) Redirect(c echo.Context) error {
	code := c.Param("code")
	req := c.Request()

	log.Debug().Str("code", code).Msg("redirect request")

	destination, err := h.links.Resolve(req.Context(), code, links.Visit{
		IP:        c.RealIP(),
		Referrer:  req.Referer(),
		UserAgent: req.UserAgent(),
	})
	if err != nil {
		return err
	}

	return c.Redirect(http.StatusFound, destination)
}

package handler

import (
	"fmt"
	"net/http"

	"github.com/abdusco/shortly/internal/links"
	"github.com/labstack/echo/v4"
	"github.com/skip2/go-qrcode"
)

const qrSize = 256

type QRHandler struct {
	links   *links.Service
	baseURL string
}

func NewQRHandler(links *links.Service, baseURL string) *QRHandler {
	return &QRHandler{links: links, baseURL: baseURL}
}

// QRCode renders the short URL of a link as a PNG download.
func (h *QRHandler) QRCode(c echo.Context) error {
	link, err := h.links.GetPublic(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	png, err := qrcode.Encode(h.baseURL+"/"+link.PublicCode(), qrcode.High, qrSize)
	if err != nil {
		return fmt.Errorf("render qr code: %w", err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", "qrcode-"+link.ShortCode+".png"))
	return c.Blob(http.StatusOK, "image/png", png)
}

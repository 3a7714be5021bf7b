package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"rafiq/internal/config"
)

type PortalConfigHandler struct {
	cfg *config.Config
}

func NewPortalConfigHandler(cfg *config.Config) *PortalConfigHandler {
	return &PortalConfigHandler{cfg: cfg}
}

type PortalConfigResponse struct {
	BrandName     string   `json:"brand_name"`
	DefaultLocale string   `json:"default_locale"`
	Locales       []string `json:"locales"`
	SupportEmail  string   `json:"support_email,omitempty"`
}

func (h *PortalConfigHandler) Get(c *gin.Context) {
	var p config.PortalConfig
	if h.cfg != nil {
		p = h.cfg.Portal
	}
	if strings.TrimSpace(p.BrandName) == "" {
		p.BrandName = "Rafiq"
	}
	if strings.TrimSpace(p.DefaultLocale) == "" {
		p.DefaultLocale = "fr"
	}
	if len(p.Locales) == 0 {
		p.Locales = []string{"fr", "ar"}
	}
	c.JSON(http.StatusOK, PortalConfigResponse{
		BrandName:     p.BrandName,
		DefaultLocale: p.DefaultLocale,
		Locales:       p.Locales,
		SupportEmail:  p.SupportEmail,
	})
}

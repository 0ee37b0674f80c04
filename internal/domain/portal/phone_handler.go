package portal

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/portal/internal/platform/geocache"
	"github.com/ehr/portal/internal/platform/phone"
	"github.com/ehr/portal/internal/platform/validation"
)

// Where a default country came from.
const (
	SourceCache   = "cache"
	SourceHeader  = "header"
	SourceDefault = "default"
)

type PhoneConfig struct {
	DefaultCountry string
	// GeoHeader is set by the edge proxy to the client's ISO country.
	GeoHeader string
	MaxAge    time.Duration
}

// PhoneHandler serves the helpers the phone form widget calls while the user
// types.
type PhoneHandler struct {
	geo    geocache.Store
	cfg    PhoneConfig
	logger zerolog.Logger
	now    func() time.Time
}

func NewPhoneHandler(geo geocache.Store, cfg PhoneConfig, logger zerolog.Logger) *PhoneHandler {
	if _, ok := phone.Lookup(cfg.DefaultCountry); !ok {
		cfg.DefaultCountry = phone.DefaultCountry
	}
	return &PhoneHandler{
		geo:    geo,
		cfg:    cfg,
		logger: logger.With().Str("component", "phone").Logger(),
		now:    time.Now,
	}
}

func (h *PhoneHandler) RegisterRoutes(public *echo.Group) {
	g := public.Group("/phone")
	g.GET("/countries", h.ListCountries)
	g.GET("/default-country", h.DefaultCountry)
	g.POST("/preview", h.Preview)
	g.POST("/split", h.Split)
}

func (h *PhoneHandler) ListCountries(c echo.Context) error {
	return c.JSON(http.StatusOK, phone.Search(c.QueryParam("q")))
}

type defaultCountryResponse struct {
	Country phone.Country `json:"country"`
	Source  string        `json:"source"`
}

// DefaultCountry picks the country the form should pre-select for this
// client: a fresh cached answer, then the edge geolocation header, then the
// configured default.
func (h *PhoneHandler) DefaultCountry(c echo.Context) error {
	ctx := c.Request().Context()
	key := c.RealIP()
	now := h.now()

	entry, ok, err := h.geo.Get(ctx, key)
	if err != nil {
		h.logger.Warn().Err(err).Msg("geo cache read failed")
	}
	if ok && entry.Fresh(h.cfg.MaxAge, now) {
		if country, found := phone.Lookup(entry.Country); found {
			return c.JSON(http.StatusOK, defaultCountryResponse{Country: country, Source: SourceCache})
		}
	}

	if h.cfg.GeoHeader != "" {
		code := strings.ToUpper(strings.TrimSpace(c.Request().Header.Get(h.cfg.GeoHeader)))
		if country, found := phone.Lookup(code); found {
			if err := h.geo.Put(ctx, key, geocache.Entry{Country: country.Code, StoredAt: now}); err != nil {
				h.logger.Warn().Err(err).Msg("geo cache write failed")
			}
			return c.JSON(http.StatusOK, defaultCountryResponse{Country: country, Source: SourceHeader})
		}
	}

	country, _ := phone.Lookup(h.cfg.DefaultCountry)
	return c.JSON(http.StatusOK, defaultCountryResponse{Country: country, Source: SourceDefault})
}

type previewRequest struct {
	Country  string `json:"country" validate:"required,country"`
	National string `json:"national"`
}

type previewResponse struct {
	Country       string         `json:"country"`
	National      string         `json:"national"`
	Formatted     string         `json:"formatted"`
	Display       string         `json:"display"`
	International string         `json:"international"`
	Complete      bool           `json:"complete"`
	Progress      phone.Progress `json:"progress"`
	Remaining     int            `json:"remaining"`
}

// Preview renders a partially typed national number the way the form shows it.
func (h *PhoneHandler) Preview(c echo.Context) error {
	var req previewRequest
	if err := validation.BindAndValidate(c, &req); err != nil {
		return err
	}
	country := strings.ToUpper(req.Country)
	digits := phone.Digits(req.National)
	progress := phone.Measure(country, digits)

	resp := previewResponse{
		Country:       country,
		National:      digits,
		Formatted:     phone.Format(country, digits),
		International: phone.Combine(country, digits),
		Complete:      phone.IsComplete(country, digits),
		Progress:      progress,
		Remaining:     progress.Remaining(),
	}
	if digits != "" {
		resp.Display = phone.Display(phone.Value{Country: country, National: digits})
	}
	return c.JSON(http.StatusOK, resp)
}

type splitRequest struct {
	International string `json:"international"`
	Country       string `json:"country" validate:"omitempty,country"`
	Trusted       bool   `json:"trusted"`
}

type splitResponse struct {
	phone.Value
	Formatted string `json:"formatted"`
}

// Split turns a stored international string back into the form pair.
func (h *PhoneHandler) Split(c echo.Context) error {
	var req splitRequest
	if err := validation.BindAndValidate(c, &req); err != nil {
		return err
	}
	hint := phone.Infer()
	switch {
	case req.Trusted && req.Country != "":
		hint = phone.Trusted(req.Country)
	case req.Country != "":
		hint = phone.Prefer(req.Country)
	}
	v := phone.Split(req.International, hint)
	return c.JSON(http.StatusOK, splitResponse{Value: v, Formatted: phone.Format(v.Country, v.National)})
}

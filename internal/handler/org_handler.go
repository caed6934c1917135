package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/octobees/orgscout/internal/dto"
	"github.com/octobees/orgscout/internal/service"
)

// OrganizationsHandler exposes catalogue read endpoints.
type OrganizationsHandler struct {
	orgService *service.OrganizationsService
}

// NewOrganizationsHandler constructs an OrganizationsHandler.
func NewOrganizationsHandler(orgService *service.OrganizationsService) *OrganizationsHandler {
	return &OrganizationsHandler{orgService: orgService}
}

// List handles GET /organizations requests.
func (h *OrganizationsHandler) List(c echo.Context) error {
	filter := dto.ListFilter{
		Q:          strings.TrimSpace(c.QueryParam("q")),
		Profession: strings.TrimSpace(c.QueryParam("profession")),
		Country:    strings.TrimSpace(c.QueryParam("country")),
		City:       strings.TrimSpace(c.QueryParam("city")),
		Province:   strings.TrimSpace(c.QueryParam("province")),
		Sector:     strings.TrimSpace(c.QueryParam("sector")),
		Language:   strings.TrimSpace(c.QueryParam("language")),
		Sort:       strings.TrimSpace(c.QueryParam("sort")),
	}

	if raw := c.QueryParam("run_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return Error(c, http.StatusBadRequest, "run_id must be a valid uuid")
		}
		filter.RunID = &id
	}
	if raw := c.QueryParam("min_quality"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 || v > 10 {
			return Error(c, http.StatusBadRequest, "min_quality must be an integer between 0 and 10")
		}
		filter.MinQuality = &v
	}
	if raw := c.QueryParam("page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return Error(c, http.StatusBadRequest, "page must be a positive integer")
		}
		filter.Page = v
	}
	if raw := c.QueryParam("per_page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return Error(c, http.StatusBadRequest, "per_page must be a positive integer")
		}
		filter.PerPage = v
	}

	entries, err := h.orgService.List(c.Request().Context(), filter)
	if err != nil {
		return Error(c, http.StatusInternalServerError, "unable to list organizations")
	}

	return Success(c, http.StatusOK, "organizations", map[string]any{
		"organizations": entries,
		"count":         len(entries),
	})
}

// ExportCSV handles GET /admin/organizations/export requests. The catalogue
// is streamed as a CSV attachment.
func (h *OrganizationsHandler) ExportCSV(c echo.Context) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="organizations.csv"`)
	res.WriteHeader(http.StatusOK)

	if err := h.orgService.ExportCSV(c.Request().Context(), res); err != nil {
		// Headers are already written; all we can do is log via echo.
		return err
	}
	return nil
}

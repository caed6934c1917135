package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/octobees/orgscout/internal/dto"
	"github.com/octobees/orgscout/internal/entity"
	"github.com/octobees/orgscout/internal/repository"
)

// OrganizationsService exposes read operations over the scraped catalogue.
type OrganizationsService struct {
	repo repository.OrganizationsRepository
}

// NewOrganizationsService creates a new instance of OrganizationsService.
func NewOrganizationsService(repo repository.OrganizationsRepository) *OrganizationsService {
	return &OrganizationsService{repo: repo}
}

// List returns organizations respecting pagination defaults.
func (s *OrganizationsService) List(ctx context.Context, filter dto.ListFilter) ([]entity.OrganizationEntry, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}
	return s.repo.List(ctx, filter)
}

var exportHeader = []string{
	"name", "category", "description", "website", "email", "phone",
	"whatsapp", "line_id", "telegram", "wechat",
	"facebook", "instagram", "linkedin", "other_contact", "contact_name",
	"city", "province", "address", "language",
	"source_url", "profession", "country", "sectors",
	"quality_score", "enrichment_quality", "scraped_at",
}

// ExportCSV streams the whole catalogue as CSV.
func (s *OrganizationsService) ExportCSV(ctx context.Context, w io.Writer) error {
	entries, err := s.repo.All(ctx)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for i := range entries {
		e := &entries[i]
		record := []string{
			e.Name, e.Category, e.Description, e.Website, e.Email, e.Phone,
			e.WhatsApp, e.LineID, e.Telegram, e.WeChat,
			e.Facebook, e.Instagram, e.LinkedIn, e.OtherContact, e.ContactName,
			e.City, e.Province, e.Address, e.Language,
			e.SourceURL, e.Profession, e.Country, strings.Join(e.Sectors, "|"),
			strconv.Itoa(e.QualityScore), strconv.Itoa(e.EnrichmentQuality),
			e.ScrapedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

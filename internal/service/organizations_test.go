package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/octobees/orgscout/internal/dto"
	"github.com/octobees/orgscout/internal/entity"
)

type stubOrgsRepo struct {
	listFilter dto.ListFilter
	all        []entity.OrganizationEntry
}

func (s *stubOrgsRepo) Upsert(ctx context.Context, e *entity.OrganizationEntry) error { return nil }

func (s *stubOrgsRepo) List(ctx context.Context, filter dto.ListFilter) ([]entity.OrganizationEntry, error) {
	s.listFilter = filter
	return nil, nil
}

func (s *stubOrgsRepo) All(ctx context.Context) ([]entity.OrganizationEntry, error) {
	return s.all, nil
}

func TestListAppliesPaginationDefaults(t *testing.T) {
	repo := &stubOrgsRepo{}
	svc := NewOrganizationsService(repo)

	if _, err := svc.List(context.Background(), dto.ListFilter{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.listFilter.Page != 1 || repo.listFilter.PerPage != 20 {
		t.Fatalf("unexpected defaults: %+v", repo.listFilter)
	}

	if _, err := svc.List(context.Background(), dto.ListFilter{PerPage: 5000}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.listFilter.PerPage != 100 {
		t.Fatalf("expected per_page clamp, got %d", repo.listFilter.PerPage)
	}
}

func TestExportCSV(t *testing.T) {
	repo := &stubOrgsRepo{
		all: []entity.OrganizationEntry{
			{
				Name:         "Siam Legal International",
				Website:      "https://siamlegal.example",
				Email:        "info@siamlegal.example",
				Phone:        "+6621234567",
				City:         "Pattaya",
				Province:     "Chonburi",
				Profession:   "lawyer",
				Country:      "Thailand",
				Sectors:      []string{"legal", "tourism"},
				QualityScore: 9,
				ScrapedAt:    time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
			},
		},
	}
	svc := NewOrganizationsService(repo)

	var buf bytes.Buffer
	if err := svc.ExportCSV(context.Background(), &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus one row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "name,category,description") {
		t.Fatalf("unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[1], "Siam Legal International") || !strings.Contains(lines[1], "legal|tourism") {
		t.Fatalf("unexpected row: %s", lines[1])
	}
	if !strings.Contains(lines[1], "2026-08-01 12:00:00") {
		t.Fatalf("expected formatted timestamp: %s", lines[1])
	}
}

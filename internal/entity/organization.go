package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// OrganizationEntry is the central record produced by the scraping pipeline.
// The page parser creates it with partial data; each enrichment stage adds or
// merges fields; the validation layer freezes it before persistence.
//
// Multi-valued contact fields (Email, Phone, WhatsApp, ...) hold a single
// "; "-joined string of deduplicated sorted values, capped at a small maximum.
type OrganizationEntry struct {
	ID           uuid.UUID  `json:"id"`
	RunID        *uuid.UUID `json:"run_id,omitempty"`
	Name         string     `json:"name"`
	Category     string     `json:"category,omitempty"`
	Description  string     `json:"description,omitempty"`
	Website      string     `json:"website,omitempty"`
	Email        string     `json:"email,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	WhatsApp     string     `json:"whatsapp,omitempty"`
	LineID       string     `json:"line_id,omitempty"`
	Telegram     string     `json:"telegram,omitempty"`
	WeChat       string     `json:"wechat,omitempty"`
	Facebook     string     `json:"facebook,omitempty"`
	Instagram    string     `json:"instagram,omitempty"`
	LinkedIn     string     `json:"linkedin,omitempty"`
	OtherContact string     `json:"other_contact,omitempty"`
	ContactName  string     `json:"contact_name,omitempty"`
	City         string     `json:"city,omitempty"`
	Province     string     `json:"province,omitempty"`
	Address      string     `json:"address,omitempty"`
	Latitude     *float64   `json:"latitude,omitempty"`
	Longitude    *float64   `json:"longitude,omitempty"`
	Language     string     `json:"language,omitempty"`
	SourceURL    string     `json:"source_url,omitempty"`
	Profession   string     `json:"profession,omitempty"`
	Country      string     `json:"country,omitempty"`
	Sectors      []string   `json:"sectors,omitempty"`
	ScrapedAt    time.Time  `json:"scraped_at"`

	QualityScore      int `json:"quality_score"`
	EnrichmentQuality int `json:"enrichment_quality"`

	// NormalizedName is derived and used only as a deduplication key.
	NormalizedName string `json:"-"`
}

// HasContactMethod reports whether the entry carries at least one way to
// reach the organization.
func (e *OrganizationEntry) HasContactMethod() bool {
	for _, v := range []string{
		e.Website, e.Email, e.Phone, e.WhatsApp, e.LineID,
		e.Telegram, e.WeChat, e.Facebook, e.Instagram, e.LinkedIn,
		e.OtherContact,
	} {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/octobees/orgscout/internal/dto"
	"github.com/octobees/orgscout/internal/entity"
)

// OrganizationsRepository describes persistence operations for scraped
// organizations.
type OrganizationsRepository interface {
	Upsert(ctx context.Context, e *entity.OrganizationEntry) error
	List(ctx context.Context, filter dto.ListFilter) ([]entity.OrganizationEntry, error)
	All(ctx context.Context) ([]entity.OrganizationEntry, error)
}

// PGXOrganizationsRepository implements OrganizationsRepository using pgx.
type PGXOrganizationsRepository struct {
	pool pgxPool
}

// NewPGXOrganizationsRepository wires a pgx backed repository.
func NewPGXOrganizationsRepository(pool *pgxpool.Pool) *PGXOrganizationsRepository {
	return &PGXOrganizationsRepository{pool: pool}
}

const organizationColumns = `
	id, run_id, name, normalized_name, category, description, website,
	email, phone, whatsapp, line_id, telegram, wechat,
	facebook, instagram, linkedin, other_contact, contact_name,
	city, province, address, latitude, longitude,
	language, source_url, profession, country, sectors,
	quality_score, enrichment_quality, scraped_at`

// Upsert inserts or updates an organization keyed by its normalized name
// within a country. Re-running a scrape refreshes the row instead of
// duplicating it.
func (r *PGXOrganizationsRepository) Upsert(ctx context.Context, e *entity.OrganizationEntry) error {
	if e == nil {
		return fmt.Errorf("organization payload is nil")
	}

	query := `
        INSERT INTO organizations (
            id, run_id, name, normalized_name, category, description, website,
            email, phone, whatsapp, line_id, telegram, wechat,
            facebook, instagram, linkedin, other_contact, contact_name,
            city, province, address, latitude, longitude,
            language, source_url, profession, country, sectors,
            quality_score, enrichment_quality, scraped_at, updated_at
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7,
            $8, $9, $10, $11, $12, $13,
            $14, $15, $16, $17, $18,
            $19, $20, $21, $22, $23,
            $24, $25, $26, $27, $28,
            $29, $30, $31, NOW()
        )
        ON CONFLICT (normalized_name, country) DO UPDATE SET
            run_id = EXCLUDED.run_id,
            name = EXCLUDED.name,
            category = EXCLUDED.category,
            description = EXCLUDED.description,
            website = EXCLUDED.website,
            email = EXCLUDED.email,
            phone = EXCLUDED.phone,
            whatsapp = EXCLUDED.whatsapp,
            line_id = EXCLUDED.line_id,
            telegram = EXCLUDED.telegram,
            wechat = EXCLUDED.wechat,
            facebook = EXCLUDED.facebook,
            instagram = EXCLUDED.instagram,
            linkedin = EXCLUDED.linkedin,
            other_contact = EXCLUDED.other_contact,
            contact_name = EXCLUDED.contact_name,
            city = EXCLUDED.city,
            province = EXCLUDED.province,
            address = EXCLUDED.address,
            latitude = EXCLUDED.latitude,
            longitude = EXCLUDED.longitude,
            language = EXCLUDED.language,
            source_url = EXCLUDED.source_url,
            profession = EXCLUDED.profession,
            country = EXCLUDED.country,
            sectors = EXCLUDED.sectors,
            quality_score = EXCLUDED.quality_score,
            enrichment_quality = EXCLUDED.enrichment_quality,
            scraped_at = EXCLUDED.scraped_at,
            updated_at = NOW()
    `

	_, err := r.pool.Exec(ctx, query,
		e.ID, e.RunID, e.Name, e.NormalizedName, e.Category, e.Description, e.Website,
		e.Email, e.Phone, e.WhatsApp, e.LineID, e.Telegram, e.WeChat,
		e.Facebook, e.Instagram, e.LinkedIn, e.OtherContact, e.ContactName,
		e.City, e.Province, e.Address, e.Latitude, e.Longitude,
		e.Language, e.SourceURL, e.Profession, e.Country, e.Sectors,
		e.QualityScore, e.EnrichmentQuality, e.ScrapedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert organization: %w", err)
	}
	return nil
}

// List returns organizations matching the filter, paginated.
func (r *PGXOrganizationsRepository) List(ctx context.Context, filter dto.ListFilter) ([]entity.OrganizationEntry, error) {
	var baseQuery strings.Builder
	baseQuery.WriteString("SELECT ")
	baseQuery.WriteString(organizationColumns)
	baseQuery.WriteString(" FROM organizations")

	var (
		clauses []string
		args    []any
		idx     = 1
	)

	if q := strings.TrimSpace(filter.Q); q != "" {
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", idx, idx))
		args = append(args, "%"+q+"%")
		idx++
	}
	if filter.Profession != "" {
		clauses = append(clauses, fmt.Sprintf("LOWER(profession) = LOWER($%d)", idx))
		args = append(args, filter.Profession)
		idx++
	}
	if filter.Country != "" {
		clauses = append(clauses, fmt.Sprintf("LOWER(country) = LOWER($%d)", idx))
		args = append(args, filter.Country)
		idx++
	}
	if filter.City != "" {
		clauses = append(clauses, fmt.Sprintf("LOWER(city) = LOWER($%d)", idx))
		args = append(args, filter.City)
		idx++
	}
	if filter.Province != "" {
		clauses = append(clauses, fmt.Sprintf("LOWER(province) = LOWER($%d)", idx))
		args = append(args, filter.Province)
		idx++
	}
	if filter.Language != "" {
		clauses = append(clauses, fmt.Sprintf("LOWER(language) = LOWER($%d)", idx))
		args = append(args, filter.Language)
		idx++
	}
	if filter.Sector != "" {
		clauses = append(clauses, fmt.Sprintf("$%d = ANY(sectors)", idx))
		args = append(args, strings.ToLower(filter.Sector))
		idx++
	}
	if filter.MinQuality != nil {
		clauses = append(clauses, fmt.Sprintf("quality_score >= $%d", idx))
		args = append(args, *filter.MinQuality)
		idx++
	}
	if filter.RunID != nil {
		clauses = append(clauses, fmt.Sprintf("run_id = $%d", idx))
		args = append(args, *filter.RunID)
		idx++
	}

	if len(clauses) > 0 {
		baseQuery.WriteString(" WHERE ")
		baseQuery.WriteString(strings.Join(clauses, " AND "))
	}

	orderClause := "quality_score DESC, name ASC"
	if strings.EqualFold(filter.Sort, "recent") {
		orderClause = "scraped_at DESC, quality_score DESC"
	}
	baseQuery.WriteString(" ORDER BY ")
	baseQuery.WriteString(orderClause)

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}
	offset := (page - 1) * perPage
	baseQuery.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", idx, idx+1))
	args = append(args, perPage, offset)

	rows, err := r.pool.Query(ctx, baseQuery.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	return scanOrganizations(rows)
}

// All streams every organization ordered for export.
func (r *PGXOrganizationsRepository) All(ctx context.Context) ([]entity.OrganizationEntry, error) {
	query := "SELECT " + organizationColumns + " FROM organizations ORDER BY country, profession, name"
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("export organizations: %w", err)
	}
	defer rows.Close()

	return scanOrganizations(rows)
}

func scanOrganizations(rows pgx.Rows) ([]entity.OrganizationEntry, error) {
	var out []entity.OrganizationEntry
	for rows.Next() {
		var e entity.OrganizationEntry
		err := rows.Scan(
			&e.ID, &e.RunID, &e.Name, &e.NormalizedName, &e.Category, &e.Description, &e.Website,
			&e.Email, &e.Phone, &e.WhatsApp, &e.LineID, &e.Telegram, &e.WeChat,
			&e.Facebook, &e.Instagram, &e.LinkedIn, &e.OtherContact, &e.ContactName,
			&e.City, &e.Province, &e.Address, &e.Latitude, &e.Longitude,
			&e.Language, &e.SourceURL, &e.Profession, &e.Country, &e.Sectors,
			&e.QualityScore, &e.EnrichmentQuality, &e.ScrapedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate organizations: %w", err)
	}
	return out, nil
}

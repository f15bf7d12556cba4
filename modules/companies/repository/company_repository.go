package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/andreypavlenko/crmcore/internal/textnorm"
	"github.com/andreypavlenko/crmcore/modules/companies/model"
	"github.com/andreypavlenko/crmcore/modules/companies/ports"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CompanyRepository implements ports.CompanyRepository. Grounded on
// modules/companies/repository/company_repository.go (teacher), with
// the user_id scoping removed — companies are a CRM-wide shared
// collection, not per-user data (spec §3).
type CompanyRepository struct {
	pool *pgxpool.Pool
}

func NewCompanyRepository(pool *pgxpool.Pool) *CompanyRepository {
	return &CompanyRepository{pool: pool}
}

func (r *CompanyRepository) Create(ctx context.Context, company *model.Company) error {
	query := `
		INSERT INTO companies (id, name, normalized_name, aliases, domains, is_active, source, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if company.ID == "" {
		company.ID = uuid.New().String()
	}
	company.NormalizedName = textnorm.NormalizeCompanyName(company.Name)
	now := time.Now().UTC()
	company.CreatedAt = now
	company.UpdatedAt = now

	_, err := r.pool.Exec(ctx, query,
		company.ID, company.Name, company.NormalizedName, company.Aliases, company.Domains,
		company.IsActive, company.Source, company.CreatedAt, company.UpdatedAt,
	)
	if err != nil && strings.Contains(err.Error(), "companies_normalized_name_key") {
		return model.ErrDuplicateNormalizedName
	}
	return err
}

func (r *CompanyRepository) GetByID(ctx context.Context, companyID string) (*model.Company, error) {
	query := `
		SELECT id, name, normalized_name, aliases, domains, is_active, source, created_at, updated_at
		FROM companies WHERE id = $1
	`
	c := &model.Company{}
	err := r.pool.QueryRow(ctx, query, companyID).Scan(
		&c.ID, &c.Name, &c.NormalizedName, &c.Aliases, &c.Domains, &c.IsActive, &c.Source, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrCompanyNotFound
		}
		return nil, err
	}
	return c, nil
}

// GetByNormalizedNames is the $in-equivalent lookup of spec §4.3 step 4.
func (r *CompanyRepository) GetByNormalizedNames(ctx context.Context, normalizedNames []string) (map[string]*model.Company, error) {
	result := make(map[string]*model.Company, len(normalizedNames))
	if len(normalizedNames) == 0 {
		return result, nil
	}

	query := `
		SELECT id, name, normalized_name, aliases, domains, is_active, source, created_at, updated_at
		FROM companies WHERE normalized_name = ANY($1)
	`
	rows, err := r.pool.Query(ctx, query, normalizedNames)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		c := &model.Company{}
		if err := rows.Scan(&c.ID, &c.Name, &c.NormalizedName, &c.Aliases, &c.Domains, &c.IsActive, &c.Source, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		result[c.NormalizedName] = c
	}
	return result, rows.Err()
}

// ResolveOrCreate implements spec §4.3 step 4's bulk company
// resolution: one lookup over existing normalized names, then an
// unordered "upsert if absent" pass (ON CONFLICT DO NOTHING, since the
// unique index on normalized_name makes the insert-if-absent race-safe
// per spec §5) for every name that wasn't found, followed by a
// re-fetch of those rows.
func (r *CompanyRepository) ResolveOrCreate(ctx context.Context, rawNames []string) (map[string]*model.Company, error) {
	normalizedToRaw := make(map[string]string, len(rawNames))
	normalized := make([]string, 0, len(rawNames))
	for _, raw := range rawNames {
		n := textnorm.NormalizeCompanyName(raw)
		if n == "" {
			continue
		}
		if _, seen := normalizedToRaw[n]; !seen {
			normalizedToRaw[n] = raw
			normalized = append(normalized, n)
		}
	}

	existing, err := r.GetByNormalizedNames(ctx, normalized)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, n := range normalized {
		if _, ok := existing[n]; !ok {
			missing = append(missing, n)
		}
	}

	if len(missing) == 0 {
		return existing, nil
	}

	now := time.Now().UTC()
	insertQuery := `
		INSERT INTO companies (id, name, normalized_name, aliases, domains, is_active, source, created_at, updated_at)
		VALUES ($1, $2, $3, '{}', '{}', false, $4, $5, $5)
		ON CONFLICT (normalized_name) DO NOTHING
	`
	for _, n := range missing {
		if _, err := r.pool.Exec(ctx, insertQuery, uuid.New().String(), normalizedToRaw[n], n, model.SourceAutoCreated, now); err != nil {
			// per-op partial failure (spec §7 kind 4): log upstream, continue.
			continue
		}
	}

	created, err := r.GetByNormalizedNames(ctx, missing)
	if err != nil {
		return nil, err
	}
	for k, v := range created {
		existing[k] = v
	}
	return existing, nil
}

func (r *CompanyRepository) List(ctx context.Context, opts *ports.ListOptions) ([]*model.CompanyDTO, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM companies`).Scan(&total); err != nil {
		return nil, 0, err
	}

	orderBy := "name ASC"
	if opts.SortBy == "created_at" {
		orderBy = "created_at"
		if strings.ToUpper(opts.SortDir) == "DESC" {
			orderBy += " DESC"
		} else {
			orderBy += " ASC"
		}
	}

	query := fmt.Sprintf(`
		SELECT c.id, c.name, c.normalized_name, c.aliases, c.domains, c.is_active, c.source, c.created_at, c.updated_at,
			COALESCE((SELECT COUNT(*) FROM contacts ct WHERE ct.primary_company_id = c.id), 0) AS contacts_count
		FROM companies c
		ORDER BY %s
		LIMIT $1 OFFSET $2
	`, orderBy)

	rows, err := r.pool.Query(ctx, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var companies []*model.CompanyDTO
	for rows.Next() {
		dto := &model.CompanyDTO{}
		if err := rows.Scan(
			&dto.ID, &dto.Name, &dto.NormalizedName, &dto.Aliases, &dto.Domains, &dto.IsActive, &dto.Source,
			&dto.CreatedAt, &dto.UpdatedAt, &dto.ContactsCount,
		); err != nil {
			return nil, 0, err
		}
		companies = append(companies, dto)
	}
	return companies, total, rows.Err()
}

func (r *CompanyRepository) Update(ctx context.Context, company *model.Company) error {
	query := `
		UPDATE companies
		SET name = $2, normalized_name = $3, aliases = $4, domains = $5, is_active = $6, updated_at = $7
		WHERE id = $1
	`
	company.NormalizedName = textnorm.NormalizeCompanyName(company.Name)
	company.UpdatedAt = time.Now().UTC()

	result, err := r.pool.Exec(ctx, query,
		company.ID, company.Name, company.NormalizedName, company.Aliases, company.Domains, company.IsActive, company.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "companies_normalized_name_key") {
			return model.ErrDuplicateNormalizedName
		}
		return err
	}
	if result.RowsAffected() == 0 {
		return model.ErrCompanyNotFound
	}
	return nil
}

func (r *CompanyRepository) Delete(ctx context.Context, companyID string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM companies WHERE id = $1`, companyID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return model.ErrCompanyNotFound
	}
	return nil
}

func (r *CompanyRepository) ContactsCount(ctx context.Context, companyID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM contacts WHERE primary_company_id = $1`, companyID).Scan(&count)
	return count, err
}

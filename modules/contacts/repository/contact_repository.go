package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/andreypavlenko/crmcore/internal/errkind"
	"github.com/andreypavlenko/crmcore/modules/contacts/model"
	"github.com/andreypavlenko/crmcore/modules/contacts/ports"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ContactRepository implements ports.ContactRepository. Grounded on
// modules/companies/repository/company_repository.go (teacher's raw
// pgx idiom); emails are modeled as a join table (contact_emails) so
// the unique/secondary indexes spec §4.1 requires on contacts.email
// and contacts.emails.email both exist as real Postgres indexes, while
// companies[]/webinars[]/sub_status/email_cadence stay jsonb (spec's
// flexible sub-documents, per DESIGN.md's Mongo->Postgres translation).
type ContactRepository struct {
	pool *pgxpool.Pool
}

func NewContactRepository(pool *pgxpool.Pool) *ContactRepository {
	return &ContactRepository{pool: pool}
}

const contactColumns = `
	id, primary_email, linkedin_url, linkedin_url_normalized, name, first_name, last_name,
	job_title, job_title_normalized, primary_company_id, primary_company_name, companies,
	stage, sub_status, persona_id, persona_name, persona_locked, webinars, source, source_details,
	first_connected_on_linkedin, linkedin_accepted_by, email_cadence, created_at, updated_at
`

func (r *ContactRepository) scanContact(row pgx.Row) (*model.Contact, error) {
	c := &model.Contact{}
	var companiesRaw, subStatusRaw, webinarsRaw, sourceDetailsRaw, cadenceRaw []byte

	err := row.Scan(
		&c.ID, &c.PrimaryEmail, &c.LinkedInURL, &c.LinkedInURLNorm, &c.Name, &c.FirstName, &c.LastName,
		&c.JobTitle, &c.JobTitleNormalized, &c.PrimaryCompanyID, &c.PrimaryCompanyName, &companiesRaw,
		&c.Stage, &subStatusRaw, &c.Persona, &c.PersonaName, &c.PersonaLocked, &webinarsRaw, &c.Source, &sourceDetailsRaw,
		&c.FirstConnectedOnLinkedIn, &c.LinkedInAcceptedBy, &cadenceRaw, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(companiesRaw) > 0 {
		_ = json.Unmarshal(companiesRaw, &c.Companies)
	}
	if len(subStatusRaw) > 0 {
		_ = json.Unmarshal(subStatusRaw, &c.SubStatus)
	}
	if len(webinarsRaw) > 0 {
		_ = json.Unmarshal(webinarsRaw, &c.Webinars)
	}
	if len(sourceDetailsRaw) > 0 {
		_ = json.Unmarshal(sourceDetailsRaw, &c.SourceDetails)
	}
	if len(cadenceRaw) > 0 {
		_ = json.Unmarshal(cadenceRaw, &c.EmailCadence)
	}
	return c, nil
}

func (r *ContactRepository) Create(ctx context.Context, contact *model.Contact) error {
	if contact.ID == "" {
		contact.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	contact.CreatedAt = now
	contact.UpdatedAt = now
	if contact.Stage == 0 {
		contact.Stage = model.StageMin
	}

	companiesJSON, _ := json.Marshal(contact.Companies)
	subStatusJSON, _ := json.Marshal(contact.SubStatus)
	webinarsJSON, _ := json.Marshal(contact.Webinars)
	sourceDetailsJSON, _ := json.Marshal(contact.SourceDetails)
	cadenceJSON, _ := json.Marshal(contact.EmailCadence)

	query := `
		INSERT INTO contacts (
			id, primary_email, linkedin_url, linkedin_url_normalized, name, first_name, last_name,
			job_title, job_title_normalized, primary_company_id, primary_company_name, companies,
			stage, sub_status, persona_id, persona_name, persona_locked, webinars, source, source_details,
			first_connected_on_linkedin, linkedin_accepted_by, email_cadence, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25)
	`
	_, err := r.pool.Exec(ctx, query,
		contact.ID, contact.PrimaryEmail, contact.LinkedInURL, contact.LinkedInURLNorm, contact.Name, contact.FirstName, contact.LastName,
		contact.JobTitle, contact.JobTitleNormalized, contact.PrimaryCompanyID, contact.PrimaryCompanyName, companiesJSON,
		contact.Stage, subStatusJSON, contact.Persona, contact.PersonaName, contact.PersonaLocked, webinarsJSON, contact.Source, sourceDetailsJSON,
		contact.FirstConnectedOnLinkedIn, contact.LinkedInAcceptedBy, cadenceJSON, contact.CreatedAt, contact.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if contact.PrimaryEmail != nil && *contact.PrimaryEmail != "" {
		if err := r.upsertEmail(ctx, contact.ID, *contact.PrimaryEmail, true); err != nil {
			return err
		}
	}
	for _, e := range contact.Emails {
		if err := r.upsertEmail(ctx, contact.ID, e.Email, e.IsPrimary); err != nil {
			return err
		}
	}
	return nil
}

func (r *ContactRepository) upsertEmail(ctx context.Context, contactID, email string, isPrimary bool) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO contact_emails (contact_id, email, is_primary)
		VALUES ($1, $2, $3)
		ON CONFLICT (contact_id, email) DO UPDATE SET is_primary = EXCLUDED.is_primary
	`, contactID, strings.ToLower(email), isPrimary)
	return err
}

func (r *ContactRepository) GetByID(ctx context.Context, contactID string) (*model.Contact, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = $1`, contactID)
	c, err := r.scanContact(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrContactNotFound
		}
		return nil, err
	}
	return c, nil
}

// GetByEmails is the multi-key lookup of spec §4.3 step 5: "gather all
// emails ... do two multi-key queries to find existing contacts".
func (r *ContactRepository) GetByEmails(ctx context.Context, emails []string) (map[string]*model.Contact, error) {
	result := make(map[string]*model.Contact, len(emails))
	if len(emails) == 0 {
		return result, nil
	}
	normalized := make([]string, 0, len(emails))
	for _, e := range emails {
		normalized = append(normalized, strings.ToLower(strings.TrimSpace(e)))
	}

	rows, err := r.pool.Query(ctx, `
		SELECT ce.email, `+contactColumns+`
		FROM contact_emails ce
		JOIN contacts c ON c.id = ce.contact_id
		WHERE ce.email = ANY($1)
	`, normalized)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var email string
		c := &model.Contact{}
		var companiesRaw, subStatusRaw, webinarsRaw, sourceDetailsRaw, cadenceRaw []byte
		if err := rows.Scan(
			&email,
			&c.ID, &c.PrimaryEmail, &c.LinkedInURL, &c.LinkedInURLNorm, &c.Name, &c.FirstName, &c.LastName,
			&c.JobTitle, &c.JobTitleNormalized, &c.PrimaryCompanyID, &c.PrimaryCompanyName, &companiesRaw,
			&c.Stage, &subStatusRaw, &c.Persona, &c.PersonaName, &c.PersonaLocked, &webinarsRaw, &c.Source, &sourceDetailsRaw,
			&c.FirstConnectedOnLinkedIn, &c.LinkedInAcceptedBy, &cadenceRaw, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if len(companiesRaw) > 0 {
			_ = json.Unmarshal(companiesRaw, &c.Companies)
		}
		if len(subStatusRaw) > 0 {
			_ = json.Unmarshal(subStatusRaw, &c.SubStatus)
		}
		if len(webinarsRaw) > 0 {
			_ = json.Unmarshal(webinarsRaw, &c.Webinars)
		}
		if len(sourceDetailsRaw) > 0 {
			_ = json.Unmarshal(sourceDetailsRaw, &c.SourceDetails)
		}
		if len(cadenceRaw) > 0 {
			_ = json.Unmarshal(cadenceRaw, &c.EmailCadence)
		}
		result[email] = c
	}
	return result, rows.Err()
}

func (r *ContactRepository) GetByLinkedInURLs(ctx context.Context, normalizedURLs []string) (map[string]*model.Contact, error) {
	result := make(map[string]*model.Contact, len(normalizedURLs))
	if len(normalizedURLs) == 0 {
		return result, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT `+contactColumns+` FROM contacts WHERE linkedin_url_normalized = ANY($1)`, normalizedURLs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		c, err := r.scanContact(rows)
		if err != nil {
			return nil, err
		}
		if c.LinkedInURLNorm != nil {
			result[*c.LinkedInURLNorm] = c
		}
	}
	return result, rows.Err()
}

func (r *ContactRepository) List(ctx context.Context, opts *ports.ListOptions) ([]*model.ContactDTO, int, error) {
	conds := []string{"1=1"}
	args := []interface{}{}
	argN := 1

	if opts.Stage != nil {
		conds = append(conds, pgArg("stage", &argN))
		args = append(args, *opts.Stage)
	}
	if opts.Persona != nil {
		conds = append(conds, pgArg("persona_id", &argN))
		args = append(args, *opts.Persona)
	}
	if opts.CompanyID != nil {
		conds = append(conds, pgArg("primary_company_id", &argN))
		args = append(args, *opts.CompanyID)
	}

	where := strings.Join(conds, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM contacts WHERE " + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	orderBy := "created_at DESC"
	switch opts.SortBy {
	case "updated_at":
		orderBy = "updated_at"
	case "name":
		orderBy = "name"
	case "created_at":
		orderBy = "created_at"
	}
	if strings.ToUpper(opts.SortDir) == "ASC" {
		orderBy += " ASC"
	} else if opts.SortBy != "" {
		orderBy += " DESC"
	}

	limitArg := argN
	args = append(args, opts.Limit)
	argN++
	offsetArg := argN
	args = append(args, opts.Offset)

	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE ` + where + `
		ORDER BY ` + orderBy + `
		LIMIT $` + strconv.Itoa(limitArg) + ` OFFSET $` + strconv.Itoa(offsetArg)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var contacts []*model.ContactDTO
	for rows.Next() {
		c, err := r.scanContact(rows)
		if err != nil {
			return nil, 0, err
		}
		contacts = append(contacts, c.ToDTO())
	}
	return contacts, total, rows.Err()
}

func pgArg(col string, argN *int) string {
	s := col + " = $" + strconv.Itoa(*argN)
	*argN++
	return s
}

func (r *ContactRepository) Update(ctx context.Context, contact *model.Contact) error {
	contact.UpdatedAt = time.Now().UTC()
	companiesJSON, _ := json.Marshal(contact.Companies)
	subStatusJSON, _ := json.Marshal(contact.SubStatus)
	webinarsJSON, _ := json.Marshal(contact.Webinars)
	sourceDetailsJSON, _ := json.Marshal(contact.SourceDetails)
	cadenceJSON, _ := json.Marshal(contact.EmailCadence)

	query := `
		UPDATE contacts SET
			primary_email = $2, linkedin_url = $3, linkedin_url_normalized = $4, name = $5,
			first_name = $6, last_name = $7, job_title = $8, job_title_normalized = $9,
			primary_company_id = $10, primary_company_name = $11, companies = $12, stage = $13,
			sub_status = $14, persona_id = $15, persona_name = $16, persona_locked = $17,
			webinars = $18, source = $19, source_details = $20, first_connected_on_linkedin = $21,
			linkedin_accepted_by = $22, email_cadence = $23, updated_at = $24
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		contact.ID, contact.PrimaryEmail, contact.LinkedInURL, contact.LinkedInURLNorm, contact.Name,
		contact.FirstName, contact.LastName, contact.JobTitle, contact.JobTitleNormalized,
		contact.PrimaryCompanyID, contact.PrimaryCompanyName, companiesJSON, contact.Stage,
		subStatusJSON, contact.Persona, contact.PersonaName, contact.PersonaLocked,
		webinarsJSON, contact.Source, sourceDetailsJSON, contact.FirstConnectedOnLinkedIn,
		contact.LinkedInAcceptedBy, cadenceJSON, contact.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return model.ErrContactNotFound
	}
	return nil
}

func (r *ContactRepository) Delete(ctx context.Context, contactID string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM contacts WHERE id = $1`, contactID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return model.ErrContactNotFound
	}
	return nil
}

func (r *ContactRepository) FlagForReclassification(ctx context.Context, contactID string) error {
	_, err := r.pool.Exec(ctx, `UPDATE contacts SET needs_reclassification = true WHERE id = $1`, contactID)
	return err
}

func (r *ContactRepository) ListForReclassification(ctx context.Context, afterID string, limit int) ([]*model.Contact, error) {
	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE persona_locked = false AND needs_reclassification = true AND id > $1
		ORDER BY id
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []*model.Contact
	for rows.Next() {
		c, err := r.scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

func (r *ContactRepository) UpdatePersona(ctx context.Context, contactID string, personaID, personaName string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE contacts SET persona_id = $2, persona_name = $3, needs_reclassification = false, updated_at = now()
		WHERE id = $1 AND persona_locked = false
	`, contactID, personaID, personaName)
	return err
}

func (r *ContactRepository) CountCreatedSince(ctx context.Context, sourceTag, personaID string, weekStart string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM contacts
		WHERE source = $1 AND persona_id = $2 AND created_at >= $3::date
	`, sourceTag, personaID, weekStart).Scan(&count)
	return count, err
}

// CountByPersona groups every contact by persona_id for the
// scheduler's classifier metrics snapshot job (spec §4.4).
func (r *ContactRepository) CountByPersona(ctx context.Context) (map[string]int, int, error) {
	rows, err := r.pool.Query(ctx, `SELECT persona_id, COUNT(*) FROM contacts GROUP BY persona_id`)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	counts := map[string]int{}
	total := 0
	for rows.Next() {
		var personaID *string
		var count int
		if err := rows.Scan(&personaID, &count); err != nil {
			return nil, 0, err
		}
		key := ""
		if personaID != nil {
			key = *personaID
		}
		counts[key] = count
		total += count
	}
	return counts, total, rows.Err()
}

// ListByWebinarEvent returns every contact whose webinars array
// contains an attendance record for eventID, using jsonb containment
// (partial-object match: only event_id needs to equal) so the webinar
// reminder materializer doesn't need a side index.
func (r *ContactRepository) ListByWebinarEvent(ctx context.Context, eventID string) ([]*model.Contact, error) {
	filter, _ := json.Marshal([]map[string]string{{"event_id": eventID}})
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE webinars @> $1::jsonb`
	rows, err := r.pool.Query(ctx, query, filter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Contact
	for rows.Next() {
		c, err := r.scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// BulkUpsert implements spec §4.3 steps 5-7: conflict detection,
// merge-on-update, insert-with-set-on-insert, run as an unordered
// sequence that continues past individual row failures.
func (r *ContactRepository) BulkUpsert(ctx context.Context, rowsIn []*model.PreparedRow) ([]*ports.UpsertResult, []*model.ConflictRow, error) {
	emails := make([]string, 0, len(rowsIn))
	urls := make([]string, 0, len(rowsIn))
	for _, row := range rowsIn {
		if row.Email != nil {
			emails = append(emails, *row.Email)
		}
		if row.LinkedInURLNorm != nil {
			urls = append(urls, *row.LinkedInURLNorm)
		}
	}

	byEmail, err := r.GetByEmails(ctx, emails)
	if err != nil {
		return nil, nil, err
	}
	byURL, err := r.GetByLinkedInURLs(ctx, urls)
	if err != nil {
		return nil, nil, err
	}

	results := make([]*ports.UpsertResult, len(rowsIn))
	var conflicts []*model.ConflictRow

	for i, row := range rowsIn {
		var byEmailMatch, byURLMatch *model.Contact
		if row.Email != nil {
			byEmailMatch = byEmail[strings.ToLower(*row.Email)]
		}
		if row.LinkedInURLNorm != nil {
			byURLMatch = byURL[*row.LinkedInURLNorm]
		}

		switch {
		case byEmailMatch != nil && byURLMatch != nil && byEmailMatch.ID != byURLMatch.ID:
			conflicts = append(conflicts, &model.ConflictRow{
				ID:           uuid.New().String(),
				RowNumber:    row.RowNumber,
				ReasonCode:   errkind.ReasonEmailURLMismatch,
				ReasonDetail: "email and linkedin_url resolve to different contacts",
				CreatedAt:    time.Now().UTC(),
			})
			// Still update the email-matched record, LinkedIn URL untouched (spec §4.3 step 5).
			r.applyMerge(ctx, byEmailMatch, row, false)
			if err := r.Update(ctx, byEmailMatch); err != nil {
				results[i] = nil
				continue
			}
			results[i] = &ports.UpsertResult{Contact: byEmailMatch, Created: false}

		case byEmailMatch != nil || byURLMatch != nil:
			existing := byEmailMatch
			if existing == nil {
				existing = byURLMatch
			}
			r.applyMerge(ctx, existing, row, true)
			if err := r.Update(ctx, existing); err != nil {
				results[i] = nil
				continue
			}
			results[i] = &ports.UpsertResult{Contact: existing, Created: false}

		default:
			created := r.buildInsert(row)
			if err := r.Create(ctx, created); err != nil {
				results[i] = nil
				continue
			}
			results[i] = &ports.UpsertResult{Contact: created, Created: true}
		}
	}

	return results, conflicts, nil
}

// applyMerge implements spec §4.3 step 6. allowLinkedIn gates whether
// the LinkedIn URL may be set (false for the conflict-row path, which
// must leave it untouched).
func (r *ContactRepository) applyMerge(ctx context.Context, existing *model.Contact, row *model.PreparedRow, allowLinkedIn bool) {
	if existing.FirstName == "" {
		existing.FirstName = row.FirstName
	}
	if existing.LastName == "" {
		existing.LastName = row.LastName
	}
	if existing.Name == "" {
		existing.Name = row.Name
	}

	if row.JobTitle != nil {
		newTitle := strings.ToLower(strings.TrimSpace(*row.JobTitle))
		oldTitle := ""
		if existing.JobTitle != nil {
			oldTitle = strings.ToLower(strings.TrimSpace(*existing.JobTitle))
		}
		if newTitle != oldTitle {
			existing.JobTitle = row.JobTitle
			existing.JobTitleNormalized = row.JobTitleNormalized
			if !existing.PersonaLocked {
				existing.Persona = &row.PersonaID
				existing.PersonaName = &row.PersonaName
			}
		}
	}

	if allowLinkedIn && existing.LinkedInURL == nil && row.LinkedInURL != nil {
		existing.LinkedInURL = row.LinkedInURL
		existing.LinkedInURLNorm = row.LinkedInURLNorm
	}

	if existing.FirstConnectedOnLinkedIn == nil && row.ConnectedOn != nil {
		existing.FirstConnectedOnLinkedIn = row.ConnectedOn
	}

	if row.CompanyID != nil {
		if !existing.HasPrimaryCompany() {
			existing.PrimaryCompanyID = row.CompanyID
			existing.PrimaryCompanyName = row.CompanyName
			existing.Companies = append(existing.Companies, model.CompanyLink{
				CompanyID: *row.CompanyID, CompanyName: derefStr(row.CompanyName), IsPrimary: true,
			})
		} else if existing.PrimaryCompanyID == nil || *existing.PrimaryCompanyID != *row.CompanyID {
			if !containsCompany(existing.Companies, *row.CompanyID) {
				existing.Companies = append(existing.Companies, model.CompanyLink{
					CompanyID: *row.CompanyID, CompanyName: derefStr(row.CompanyName), IsPrimary: false,
				})
			}
		}
	}

	if row.Email != nil && !containsEmail(existing.Emails, *row.Email) {
		existing.Emails = append(existing.Emails, model.Email{Email: strings.ToLower(*row.Email), IsPrimary: false})
	}

	existing.UpdatedAt = time.Now().UTC()
	if existing.SubStatus == nil {
		existing.SubStatus = map[string]string{}
	}
	existing.SubStatus["stage_1_status"] = "accepted"
	existing.LinkedInAcceptedBy = &row.SourceProfile
	_ = ctx
}

func (r *ContactRepository) buildInsert(row *model.PreparedRow) *model.Contact {
	now := time.Now().UTC()
	c := &model.Contact{
		ID:                       uuid.New().String(),
		FirstName:                row.FirstName,
		LastName:                 row.LastName,
		Name:                     row.Name,
		JobTitle:                 row.JobTitle,
		JobTitleNormalized:       row.JobTitleNormalized,
		LinkedInURL:              row.LinkedInURL,
		LinkedInURLNorm:          row.LinkedInURLNorm,
		Stage:                    model.StageMin,
		Persona:                  &row.PersonaID,
		PersonaName:              &row.PersonaName,
		Source:                   model.SourceLinkedInImport,
		FirstConnectedOnLinkedIn: row.ConnectedOn,
		SubStatus:                map[string]string{"stage_1_status": "accepted"},
		LinkedInAcceptedBy:       &row.SourceProfile,
		CreatedAt:                now,
		UpdatedAt:                now,
	}
	if row.Email != nil {
		email := strings.ToLower(*row.Email)
		c.PrimaryEmail = &email
		c.Emails = []model.Email{{Email: email, IsPrimary: true}}
	}
	if row.CompanyID != nil {
		c.PrimaryCompanyID = row.CompanyID
		c.PrimaryCompanyName = row.CompanyName
		c.Companies = []model.CompanyLink{{CompanyID: *row.CompanyID, CompanyName: derefStr(row.CompanyName), IsPrimary: true}}
	}
	return c
}

func containsEmail(emails []model.Email, email string) bool {
	email = strings.ToLower(email)
	for _, e := range emails {
		if strings.ToLower(e.Email) == email {
			return true
		}
	}
	return false
}

func containsCompany(companies []model.CompanyLink, companyID string) bool {
	for _, c := range companies {
		if c.CompanyID == companyID {
			return true
		}
	}
	return false
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

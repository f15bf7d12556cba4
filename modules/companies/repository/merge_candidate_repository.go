package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/andreypavlenko/crmcore/internal/textnorm"
	"github.com/andreypavlenko/crmcore/modules/companies/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// RefreshMergeCandidatesCache recomputes domain and name duplicate
// groups over every active company and replaces the cache table inside
// one transaction, grounded on original_source/backend/scheduler_worker.py's
// refresh_merge_candidates_cache_job (spec §4.4 "merge-candidates cache
// refresh"): it groups active companies by shared domain and by a
// corporate-suffix-stripped name key, keeping only groups with 2+ members.
func (r *CompanyRepository) RefreshMergeCandidatesCache(ctx context.Context) (int, int, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, normalized_name, domains FROM companies WHERE is_active = true`)
	if err != nil {
		return 0, 0, err
	}

	type row struct {
		id             string
		normalizedName string
		domains        []string
	}
	var all []row
	for rows.Next() {
		var domainsRaw []byte
		var rr row
		if err := rows.Scan(&rr.id, &rr.normalizedName, &domainsRaw); err != nil {
			rows.Close()
			return 0, 0, err
		}
		if len(domainsRaw) > 0 {
			_ = json.Unmarshal(domainsRaw, &rr.domains)
		}
		all = append(all, rr)
	}
	if err := rows.Err(); err != nil {
		return 0, 0, err
	}
	rows.Close()

	domainGroups := map[string][]string{}
	nameGroups := map[string][]string{}
	for _, rr := range all {
		for _, d := range rr.domains {
			domainGroups[d] = append(domainGroups[d], rr.id)
		}
		key := textnorm.NameGroupKey(rr.normalizedName)
		if key == "" {
			continue
		}
		nameGroups[key] = append(nameGroups[key], rr.id)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM merge_candidates_cache`); err != nil {
		return 0, 0, err
	}

	now := time.Now().UTC()
	domainCount, err := writeGroups(ctx, tx, model.MergeGroupTypeDomain, domainGroups, now)
	if err != nil {
		return 0, 0, err
	}
	nameCount, err := writeGroups(ctx, tx, model.MergeGroupTypeName, nameGroups, now)
	if err != nil {
		return 0, 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, err
	}
	return domainCount, nameCount, nil
}

func writeGroups(ctx context.Context, tx pgx.Tx, groupType string, groups map[string][]string, now time.Time) (int, error) {
	count := 0
	for key, ids := range groups {
		if len(ids) < 2 {
			continue
		}
		idsJSON, _ := json.Marshal(ids)
		_, err := tx.Exec(ctx, `
			INSERT INTO merge_candidates_cache (id, group_type, group_key, company_ids, computed_at)
			VALUES ($1, $2, $3, $4, $5)
		`, uuid.New().String(), groupType, key, idsJSON, now)
		if err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (r *CompanyRepository) ListMergeCandidates(ctx context.Context, groupType string) ([]*model.MergeCandidateGroup, error) {
	query := `
		SELECT id, group_type, group_key, company_ids, computed_at
		FROM merge_candidates_cache
		WHERE group_type = $1
		ORDER BY computed_at DESC
	`
	rows, err := r.pool.Query(ctx, query, groupType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.MergeCandidateGroup
	for rows.Next() {
		g := &model.MergeCandidateGroup{}
		var idsRaw []byte
		if err := rows.Scan(&g.ID, &g.GroupType, &g.GroupKey, &idsRaw, &g.ComputedAt); err != nil {
			return nil, err
		}
		if len(idsRaw) > 0 {
			_ = json.Unmarshal(idsRaw, &g.CompanyIDs)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

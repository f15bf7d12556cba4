package model

import "time"

// MergeCandidateGroup is one precomputed duplicate-company group: either
// every active company sharing a domain, or every active company whose
// normalized name collapses to the same key. Refreshed nightly by the
// scheduler's merge-candidates cache job (spec §4.4), backing the
// companies "merge duplicates" UI without a per-request scan.
type MergeCandidateGroup struct {
	ID         string
	GroupType  string
	GroupKey   string
	CompanyIDs []string
	ComputedAt time.Time
}

const (
	MergeGroupTypeDomain = "domain"
	MergeGroupTypeName   = "name"
)

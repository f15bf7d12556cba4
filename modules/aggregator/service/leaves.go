package service

// leafKind selects which of spec §4.5's scoring rules a static leaf
// uses. The position-search leaves are built dynamically (one per
// configured persona) rather than from this table, since they blend
// the time-gated and external-dependency rules together.
type leafKind int

const (
	leafComingSoon leafKind = iota
	leafContentPresence
)

// leafSpec is one static node of the traffic-light tree. The tree
// below is a representative slice of the "dozens of subsystems" spec
// §1 describes — one section per already-built driver (webinar
// reminders, newsletter, and the still-unbuilt medical/pharma scraping
// pipeline) — rather than an exhaustive catalogue.
type leafSpec struct {
	ID       string
	ParentID string
	Kind     leafKind

	// ContentPresence
	RecentWindowDays int
}

const positionSearchParent = "position_search"
const webinarsParent = "webinars"
const newsletterParent = "newsletter"
const medicalPipelineParent = "medical_pipeline"

// staticLeaves are the leaves that don't depend on runtime data (the
// medical/pharma pipeline has no dedicated store in this system, so it
// always reports gray — spec §4.5 "Gray = feature unavailable").
var staticLeaves = []leafSpec{
	{ID: "medical_society_feed", ParentID: medicalPipelineParent, Kind: leafComingSoon},
	{ID: "pharma_pipeline_feed", ParentID: medicalPipelineParent, Kind: leafComingSoon},
	{ID: "webinar_reminders_upcoming", ParentID: webinarsParent, Kind: leafContentPresence, RecentWindowDays: 14},
	{ID: "weekly_newsletter_sent", ParentID: newsletterParent, Kind: leafContentPresence, RecentWindowDays: 7},
}

// sectionIDs lists every parent node ComputeSections populates,
// independent of which personas currently exist.
var sectionIDs = []string{positionSearchParent, webinarsParent, newsletterParent, medicalPipelineParent}

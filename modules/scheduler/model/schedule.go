package model

import "time"

// Schedule is one recurring search/scrape configuration (spec §3
// "search_schedules"), dispatched by the scheduler's hourly
// process-due-schedules job.
type Schedule struct {
	ID             string
	ScheduleType   string
	EntityID       *string
	EntityName     *string
	Frequency      string
	FrequencyDays  int
	Params         map[string]string
	Active         bool
	LastRun        *time.Time
	LastRunStatus  *string
	NextRun        *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Schedule types this driver knows how to dispatch, grounded on
// scheduler_worker.py's execute_* handlers.
const (
	TypeBusinessUnit   = "business_unit"
	TypeKeyword        = "keyword"
	TypeBuyerPersona   = "buyer_persona"
	TypeSmallBusiness  = "small_business"
	TypeMedicalSociety = "medical_society"
	TypePharmaPipeline = "pharma_pipeline"
)

// RunStatus values written to last_run_status.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// frequencyDays mirrors scheduler_worker.py's FREQUENCY_DAYS table,
// used to compute next_run when a schedule doesn't carry an explicit
// frequency_days override.
var frequencyDays = map[string]int{
	"daily":      1,
	"weekly":     7,
	"biweekly":   15,
	"monthly":    30,
	"bimonthly":  60,
	"quarterly":  90,
	"semiannual": 180,
	"annual":     365,
}

// NextRunAfter computes the next run time for a completed schedule.
func NextRunAfter(s *Schedule, from time.Time) time.Time {
	days := s.FrequencyDays
	if days <= 0 {
		days = frequencyDays[s.Frequency]
	}
	if days <= 0 {
		days = 30
	}
	return from.AddDate(0, 0, days)
}

package service

import (
	"context"
	"time"

	contactmodel "github.com/andreypavlenko/crmcore/modules/contacts/model"
	"github.com/andreypavlenko/crmcore/modules/imports/model"
	"github.com/andreypavlenko/crmcore/modules/imports/ports"
	"github.com/google/uuid"
)

const previewRowLimit = 50

// JobService implements the job lifecycle API of spec §6: upload,
// preview, start, progress, cancel, and the three audit-row listings
// with CSV download variants.
type JobService struct {
	jobs  ports.JobRepository
	audit ports.AuditRepository
	files ports.FileStore
}

func NewJobService(jobs ports.JobRepository, audit ports.AuditRepository, files ports.FileStore) *JobService {
	return &JobService{jobs: jobs, audit: audit, files: files}
}

// UploadResult is the upload() response of spec §6.
type UploadResult struct {
	Job              *model.Job
	TotalRows        int
	Headers          []string
	SuggestedMapping map[string]string
}

// Upload stores the file, counts rows, and creates the job in
// status=uploaded. Per-profile exclusivity (spec §4.3 "Per-profile
// exclusivity") is enforced here at the HTTP level: a new upload is
// rejected while the profile already has a job in processing.
func (s *JobService) Upload(ctx context.Context, profile, weekStart string, body []byte) (*UploadResult, error) {
	active, err := s.jobs.ListByProfile(ctx, profile, 1)
	if err != nil {
		return nil, err
	}
	if len(active) > 0 && active[0].Status == model.StatusProcessing {
		return nil, model.ErrProfileBusy
	}

	key := "imports/" + profile + "/" + uuid.New().String() + ".csv"
	if err := s.files.Put(ctx, key, body, "text/csv"); err != nil {
		return nil, err
	}

	total, headers, err := CountRows(ctx, s.files, key)
	if err != nil {
		return nil, err
	}

	job := &model.Job{
		Profile:   profile,
		WeekStart: weekStart,
		FilePath:  key,
		Status:    model.StatusUploaded,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	return &UploadResult{
		Job:              job,
		TotalRows:        total,
		Headers:          headers,
		SuggestedMapping: SuggestMapping(headers),
	}, nil
}

// PreviewResult is the preview() response of spec §6.
type PreviewResult struct {
	Headers          []string
	SuggestedMapping map[string]string
	SavedMapping     map[string]string
	Rows             []map[string]string
}

func (s *JobService) Preview(ctx context.Context, jobID string) (*PreviewResult, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}

	var headers []string
	var rows []map[string]string
	err = StreamRows(ctx, s.files, job.FilePath, previewRowLimit, func(batch []CSVRow) error {
		for _, row := range batch {
			if headers == nil {
				for h := range row.Fields {
					headers = append(headers, h)
				}
			}
			rows = append(rows, row.Fields)
			if len(rows) >= previewRowLimit {
				return errStopIteration
			}
		}
		return nil
	})
	if err != nil && err != errStopIteration {
		return nil, err
	}

	return &PreviewResult{
		Headers:          headers,
		SuggestedMapping: SuggestMapping(headers),
		SavedMapping:     job.ColumnMapping,
		Rows:             rows,
	}, nil
}

// Start sets the column mapping and leaves the job queued for the
// scheduler's dispatch cycle to pick up; no synchronous processing
// happens here (spec §6 "start(job_id, column_mapping)").
func (s *JobService) Start(ctx context.Context, jobID string, columnMapping map[string]string) (*model.Job, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	job.ColumnMapping = columnMapping
	if job.Status != model.StatusUploaded && job.Status != model.StatusPendingRetry {
		job.Status = model.StatusUploaded
	}
	if err := s.jobs.Update(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *JobService) Progress(ctx context.Context, jobID string) (*model.Job, error) {
	return s.jobs.GetByID(ctx, jobID)
}

// Cancel implements the cooperative cancellation of spec §5: the
// worker exits at its next heartbeat/cancellation check, so this only
// flips status for jobs not already terminal.
func (s *JobService) Cancel(ctx context.Context, jobID string) error {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	switch job.Status {
	case model.StatusCompleted, model.StatusFailed, model.StatusCancelled:
		return model.ErrJobNotCancellable
	}
	job.Status = model.StatusCancelled
	return s.jobs.Update(ctx, job)
}

func (s *JobService) Conflicts(ctx context.Context, jobID string) ([]*contactmodel.ConflictRow, error) {
	return s.audit.ListConflicts(ctx, jobID)
}

func (s *JobService) InvalidRows(ctx context.Context, jobID string) ([]*contactmodel.InvalidRow, error) {
	return s.audit.ListInvalidRows(ctx, jobID)
}

func (s *JobService) ParseFailures(ctx context.Context, jobID string) ([]*contactmodel.ParseFailure, error) {
	return s.audit.ListParseFailures(ctx, jobID)
}

// ReapExpiredAudit drives the 90-day retention window (spec §9
// conflict_ttl_days). Invoked by the scheduler substrate, not the
// worker itself.
func (s *JobService) ReapExpiredAudit(ctx context.Context) (int, error) {
	cutoff := time.Now().AddDate(0, 0, -model.Config.ConflictTTLDays)
	return s.audit.ReapExpired(ctx, cutoff)
}

package service

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/andreypavlenko/crmcore/internal/errkind"
	"github.com/andreypavlenko/crmcore/internal/platform/logger"
	"github.com/andreypavlenko/crmcore/internal/textnorm"
	companyservice "github.com/andreypavlenko/crmcore/modules/companies/service"
	contactmodel "github.com/andreypavlenko/crmcore/modules/contacts/model"
	contactports "github.com/andreypavlenko/crmcore/modules/contacts/ports"
	"github.com/andreypavlenko/crmcore/modules/imports/model"
	"github.com/andreypavlenko/crmcore/modules/imports/ports"
	personaservice "github.com/andreypavlenko/crmcore/modules/persona/service"
)

// Worker runs one import_job from claim to completion (spec §4.3).
// Each of its 9 phases suspends at a store call, file-read batch
// boundary, or outbound call, so cooperative cancellation is checked
// at least once per batch (spec §5 "Suspension points").
type Worker struct {
	id         string
	jobs       ports.JobRepository
	locks      ports.LockRepository
	audit      ports.AuditRepository
	files      ports.FileStore
	contacts   contactports.ContactRepository
	companies  *companyservice.CompanyService
	classifier *personaservice.ClassifierService
	log        *logger.Logger
}

func NewWorker(
	workerID string,
	jobs ports.JobRepository,
	locks ports.LockRepository,
	audit ports.AuditRepository,
	files ports.FileStore,
	contacts contactports.ContactRepository,
	companies *companyservice.CompanyService,
	classifier *personaservice.ClassifierService,
	log *logger.Logger,
) *Worker {
	return &Worker{
		id:         workerID,
		jobs:       jobs,
		locks:      locks,
		audit:      audit,
		files:      files,
		contacts:   contacts,
		companies:  companies,
		classifier: classifier,
		log:        log,
	}
}

// Tick claims and runs at most one job (spec §4.4 "Dispatch import
// worker" at 10 s intervals). Returns false if nothing was claimed.
func (w *Worker) Tick(ctx context.Context) (bool, error) {
	job, err := w.jobs.ClaimNext(ctx, w.id)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}

	w.run(ctx, job)
	return true, nil
}

func (w *Worker) run(ctx context.Context, job *model.Job) {
	defer func() {
		if r := recover(); r != nil {
			w.handleFailure(ctx, job, fmt.Errorf("panic: %v", r), debug.Stack())
		}
	}()

	if len(job.ColumnMapping) == 0 {
		w.handleFailure(ctx, job, model.ErrColumnMappingUnset, nil)
		return
	}

	// phase 2: lock
	acquired, err := w.locks.TryAcquire(ctx, job.Profile, job.ID, w.id, time.Duration(model.Config.LockTTLS)*time.Second)
	if err != nil {
		w.handleFailure(ctx, job, err, nil)
		return
	}
	if !acquired {
		w.retryWithBackoff(ctx, job, 60*time.Second, "lock contention: profile busy")
		return
	}
	defer func() { _ = w.locks.ReleaseByJobID(ctx, job.ID) }()

	if err := w.processJob(ctx, job); err != nil {
		w.handleFailure(ctx, job, err, debug.Stack())
		return
	}
}

func (w *Worker) processJob(ctx context.Context, job *model.Job) error {
	// phase 3: pre-pass
	total, _, err := CountRows(ctx, w.files, job.FilePath)
	if err != nil {
		return fmt.Errorf("pre-pass count: %w", err)
	}
	job.Progress.TotalRows = total

	preparer := newRowPreparer(job.ColumnMapping, w.classifier, job.Profile)

	lastHeartbeat := time.Now()
	var conflictBuf []*contactmodel.ConflictRow
	var invalidBuf []*contactmodel.InvalidRow
	var parseFailureBuf []*contactmodel.ParseFailure

	flushAudit := func() error {
		if len(conflictBuf) > 0 {
			if err := w.audit.SaveConflicts(ctx, conflictBuf); err != nil {
				return err
			}
			conflictBuf = nil
		}
		if len(invalidBuf) > 0 {
			if err := w.audit.SaveInvalidRows(ctx, invalidBuf); err != nil {
				return err
			}
			invalidBuf = nil
		}
		if len(parseFailureBuf) > 0 {
			if err := w.audit.SaveParseFailures(ctx, parseFailureBuf); err != nil {
				return err
			}
			parseFailureBuf = nil
		}
		return nil
	}

	cancelled := false

	err = StreamRows(ctx, w.files, job.FilePath, model.Config.BatchSize, func(batch []CSVRow) error {
		var prepared []*contactmodel.PreparedRow
		var companyNames []string

		for _, row := range batch {
			result, err := preparer.prepare(ctx, row)
			if err != nil {
				return err
			}

			rawRow := row.Fields

			if result.Invalid {
				job.Progress.InvalidRowsCount++
				invalidBuf = append(invalidBuf, &contactmodel.InvalidRow{
					JobID:      job.ID,
					Profile:    job.Profile,
					WeekStart:  job.WeekStart,
					RowNumber:  row.Number,
					ReasonCode: result.InvalidReason,
					RawRow:     rawRow,
				})
				continue
			}

			for _, pf := range result.ParseFailures {
				parseFailureBuf = append(parseFailureBuf, &contactmodel.ParseFailure{
					JobID:        job.ID,
					Profile:      job.Profile,
					WeekStart:    job.WeekStart,
					RowNumber:    row.Number,
					ReasonCode:   pf.ReasonCode,
					ReasonDetail: pf.Detail,
					RawRow:       rawRow,
				})
			}

			if result.Row.RawCompanyName != nil && *result.Row.RawCompanyName != "" {
				companyNames = append(companyNames, *result.Row.RawCompanyName)
			}
			prepared = append(prepared, result.Row)
		}

		// phase 4: bulk company resolution, scoped to this batch's
		// distinct raw names (kept simple relative to the full-file
		// pre-pass distinct set the original does; batching still
		// dedupes within ResolveOrCreate's own $in query).
		if len(companyNames) > 0 && w.companies != nil {
			resolved, err := w.companies.ResolveOrCreate(ctx, companyNames)
			if err != nil {
				return fmt.Errorf("company resolution: %w", err)
			}
			for _, row := range prepared {
				if row.RawCompanyName == nil {
					continue
				}
				norm := textnorm.NormalizeCompanyName(*row.RawCompanyName)
				if company, ok := resolved[norm]; ok {
					row.CompanyID = &company.ID
					row.CompanyName = &company.Name
				}
			}
		}

		// phase 5: execute the batch's unordered bulk upsert
		results, conflicts, err := w.contacts.BulkUpsert(ctx, prepared)
		if err != nil {
			return fmt.Errorf("bulk upsert: %w", err)
		}

		for _, c := range conflicts {
			c.JobID = job.ID
			c.Profile = job.Profile
			c.WeekStart = job.WeekStart
			conflictBuf = append(conflictBuf, c)
		}
		job.Progress.ConflictsCount += len(conflicts)

		for _, res := range results {
			if res == nil {
				continue
			}
			if res.Created {
				job.Progress.ContactsCreated++
			} else {
				job.Progress.ContactsUpdated++
			}
		}
		job.Progress.ProcessedRows += len(batch)

		// phase 8: heartbeat every >=30s, plus cancellation check
		if time.Since(lastHeartbeat) >= time.Duration(model.Config.HeartbeatIntervalS)*time.Second {
			if err := flushAudit(); err != nil {
				return err
			}
			if err := w.jobs.Heartbeat(ctx, job.ID, job.Progress); err != nil {
				return err
			}
			if err := w.locks.Refresh(ctx, job.Profile, job.ID, time.Duration(model.Config.LockTTLS)*time.Second); err != nil {
				return err
			}
			lastHeartbeat = time.Now()

			current, err := w.jobs.GetByID(ctx, job.ID)
			if err != nil {
				return err
			}
			if current.Status == model.StatusCancelled {
				cancelled = true
				return errStopIteration
			}
		}

		return nil
	})

	if err != nil && err != errStopIteration {
		return err
	}
	if err := flushAudit(); err != nil {
		return err
	}

	if cancelled {
		job.Status = model.StatusCancelled
		return w.jobs.Update(ctx, job)
	}

	// phase 9: completion
	job.Status = model.StatusCompleted
	job.ErrorBreakdown = model.ErrorBreakdown{
		errkind.ReasonMissingIdentifiers: job.Progress.InvalidRowsCount,
		errkind.ReasonEmailURLMismatch:   job.Progress.ConflictsCount,
	}
	if err := w.jobs.Update(ctx, job); err != nil {
		return err
	}
	return w.files.Delete(ctx, job.FilePath)
}

// errStopIteration is a sentinel used to unwind StreamRows cleanly on
// cooperative cancellation without treating it as a processing error.
var errStopIteration = fmt.Errorf("import worker: cancelled")

func (w *Worker) retryWithBackoff(ctx context.Context, job *model.Job, backoff time.Duration, reason string) {
	retryAt := time.Now().Add(backoff)
	job.Status = model.StatusPendingRetry
	job.RetryAfter = &retryAt
	job.ErrorSummary = reason
	if err := w.jobs.Update(ctx, job); err != nil && w.log != nil {
		w.log.WithError("job_update_failed").Warn("import worker: failed to persist pending_retry transition")
	}
}

func (w *Worker) handleFailure(ctx context.Context, job *model.Job, cause error, stack []byte) {
	_ = w.locks.ReleaseByJobID(ctx, job.ID)

	job.Attempts++
	job.AttemptHistory = append(job.AttemptHistory, model.AttemptRecord{
		WorkerID:  w.id,
		StartedAt: time.Now().UTC(),
		Error:     cause.Error(),
		Stack:     string(stack),
	})

	if job.Attempts >= model.Config.MaxAttempts {
		job.Status = model.StatusFailed
		job.ErrorSummary = cause.Error()
		if err := w.jobs.Update(ctx, job); err != nil && w.log != nil {
			w.log.WithError("job_update_failed").Error("import worker: failed to persist terminal failure")
		}
		return
	}

	backoff := backoffFor(job.Attempts)
	w.retryWithBackoff(ctx, job, backoff, cause.Error())
}

// backoffFor implements the spec §4.3 retry schedule: 1 -> 60s,
// 2 -> 300s, >=3 terminal (handled by the caller before this is reached).
func backoffFor(attempt int) time.Duration {
	if seconds, ok := model.Config.RetryBackoffS[attempt]; ok {
		return time.Duration(seconds) * time.Second
	}
	return time.Duration(model.Config.RetryBackoffS[2]) * time.Second
}

// RecoverOrphans implements spec §4.3 "Orphan recovery": jobs stuck in
// processing with a stale or missing heartbeat are either retried with
// backoff for the next attempt or marked failed.
func (w *Worker) RecoverOrphans(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-time.Duration(model.Config.OrphanTimeoutS) * time.Second)
	orphans, err := w.jobs.ListOrphaned(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	for _, job := range orphans {
		_ = w.locks.ReleaseByJobID(ctx, job.ID)
		job.Attempts++

		if job.Attempts >= model.Config.MaxAttempts {
			job.Status = model.StatusFailed
			job.ErrorSummary = fmt.Sprintf("orphaned: worker %s stopped heartbeating", job.WorkerID)
		} else {
			retryAt := time.Now().Add(backoffFor(job.Attempts))
			job.Status = model.StatusPendingRetry
			job.RetryAfter = &retryAt
			job.ErrorSummary = fmt.Sprintf("orphaned: worker %s stopped heartbeating", job.WorkerID)
		}

		if err := w.jobs.Update(ctx, job); err != nil {
			return len(orphans), err
		}
	}
	return len(orphans), nil
}

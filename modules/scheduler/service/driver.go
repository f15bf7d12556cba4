package service

import (
	"context"
	"fmt"
	"time"

	"github.com/andreypavlenko/crmcore/internal/platform/logger"
	"github.com/andreypavlenko/crmcore/internal/platform/scraper"
	"github.com/andreypavlenko/crmcore/internal/platform/sentryhub"
	companyService "github.com/andreypavlenko/crmcore/modules/companies/service"
	newsletterService "github.com/andreypavlenko/crmcore/modules/newsletter/service"
	notifyModel "github.com/andreypavlenko/crmcore/modules/notify/model"
	personaService "github.com/andreypavlenko/crmcore/modules/persona/service"
	quotaService "github.com/andreypavlenko/crmcore/modules/quota/service"
	"github.com/andreypavlenko/crmcore/modules/scheduler/model"
	"github.com/andreypavlenko/crmcore/modules/scheduler/ports"
	webinarService "github.com/andreypavlenko/crmcore/modules/webinar/service"
)

// scheduleBatchSize bounds how many due search_schedules rows one
// tick of RunDueSchedules processes.
const scheduleBatchSize = 100

// notifier is the slice of notify.NotifyService the driver reports
// job failures through.
type notifier interface {
	Notify(ctx context.Context, kind, message string, detail map[string]string)
}

// Driver is the scheduler substrate: seven of the periodic jobs
// described by spec §4.4 (cmd/worker registers import dispatch and
// orphan recovery on the import Worker directly), each wrapped in a sentryhub panic/error boundary that
// converts a failure into a notification row instead of crashing the
// worker process.
type Driver struct {
	schedules    ports.ScheduleRepository
	quota        *quotaService.QuotaService
	companies    *companyService.CompanyService
	reclassifier *personaService.ReclassificationDriver
	metrics      *personaService.MetricsDriver
	webinars     *webinarService.Service
	newsletters  *newsletterService.Service
	scraper      *scraper.Actor
	notify       notifier
	log          *logger.Logger
}

func NewDriver(
	schedules ports.ScheduleRepository,
	quota *quotaService.QuotaService,
	companies *companyService.CompanyService,
	reclassifier *personaService.ReclassificationDriver,
	metrics *personaService.MetricsDriver,
	webinars *webinarService.Service,
	newsletters *newsletterService.Service,
	scraperActor *scraper.Actor,
	notify notifier,
	log *logger.Logger,
) *Driver {
	return &Driver{
		schedules:    schedules,
		quota:        quota,
		companies:    companies,
		reclassifier: reclassifier,
		metrics:      metrics,
		webinars:     webinars,
		newsletters:  newsletters,
		scraper:      scraperActor,
		notify:       notify,
		log:          log,
	}
}

// guard runs fn under the sentryhub boundary and, on failure, raises a
// schedule_failure notification instead of letting the caller's cron
// tick propagate the error up into the process.
func (d *Driver) guard(ctx context.Context, jobName string, fn func(ctx context.Context) error) {
	err := sentryhub.Guard(ctx, jobName, d.log, fn)
	if err != nil {
		if d.log != nil {
			d.log.WithError(jobName).Error("scheduled job failed")
		}
		if d.notify != nil {
			d.notify.Notify(ctx, notifyModel.KindScheduleFailure, fmt.Sprintf("%s failed", jobName), map[string]string{
				"job":   jobName,
				"error": err.Error(),
			})
		}
	}
}

// RunDueSchedules is the hourly "process due schedules" job (spec
// §4.4, grounded on scheduler_worker.py's process_due_schedules).
func (d *Driver) RunDueSchedules(ctx context.Context) {
	d.guard(ctx, "process_due_schedules", func(ctx context.Context) error {
		now := time.Now().UTC()
		due, err := d.schedules.ListDue(ctx, now, scheduleBatchSize)
		if err != nil {
			return fmt.Errorf("list due schedules: %w", err)
		}

		for _, s := range due {
			d.runOne(ctx, s, now)
		}
		return nil
	})
}

func (d *Driver) runOne(ctx context.Context, s *model.Schedule, now time.Time) {
	if err := d.schedules.MarkRunning(ctx, s.ID); err != nil && d.log != nil {
		d.log.WithError("schedule_mark_running_failed").Error("failed to mark schedule running")
	}

	status := model.StatusCompleted
	execErr := d.dispatch(ctx, s)
	if execErr != nil {
		status = model.StatusFailed
		if d.notify != nil {
			entityName := s.ScheduleType
			if s.EntityName != nil {
				entityName = *s.EntityName
			}
			d.notify.Notify(ctx, notifyModel.KindScheduleFailure, fmt.Sprintf("schedule %s failed", entityName), map[string]string{
				"schedule_id":   s.ID,
				"schedule_type": s.ScheduleType,
				"error":         execErr.Error(),
			})
		}
	}

	nextRun := model.NextRunAfter(s, now)
	if err := d.schedules.Complete(ctx, s.ID, now, status, nextRun); err != nil && d.log != nil {
		d.log.WithError("schedule_complete_failed").Error("failed to record schedule completion")
	}
}

func (d *Driver) dispatch(ctx context.Context, s *model.Schedule) error {
	switch s.ScheduleType {
	case model.TypeBuyerPersona, model.TypeKeyword, model.TypeBusinessUnit, model.TypeSmallBusiness:
		personaID := s.Params["persona_code"]
		if personaID == "" && s.EntityID != nil {
			personaID = *s.EntityID
		}
		if personaID == "" {
			return fmt.Errorf("schedule %s: missing persona_code param", s.ID)
		}
		_, err := d.quota.SearchRun(ctx, personaID)
		return err
	case model.TypeMedicalSociety, model.TypePharmaPipeline:
		return d.scrapeEntity(ctx, s)
	default:
		return fmt.Errorf("schedule %s: unknown schedule_type %q", s.ID, s.ScheduleType)
	}
}

// scrapeEntity fetches one website through the headless-browser actor
// and raises a notification with what it found, since no dedicated
// medical-society/pharma-pipeline store exists in this system.
func (d *Driver) scrapeEntity(ctx context.Context, s *model.Schedule) error {
	website := s.Params["website"]
	if website == "" {
		return fmt.Errorf("schedule %s: missing website param", s.ID)
	}
	text, err := d.scraper.FetchText(ctx, website, 30*time.Second)
	if err != nil {
		return fmt.Errorf("scrape %s: %w", website, err)
	}
	if d.notify != nil {
		entityName := s.ScheduleType
		if s.EntityName != nil {
			entityName = *s.EntityName
		}
		preview := text
		if len(preview) > 280 {
			preview = preview[:280]
		}
		d.notify.Notify(ctx, notifyModel.KindScrapeResult, fmt.Sprintf("scraped %s", entityName), map[string]string{
			"schedule_id": s.ID,
			"website":     website,
			"preview":     preview,
		})
	}
	return nil
}

// RunReclassificationDrain is the 30-second reclassification-queue
// drain job (spec §4.2 "ReclassificationDriver"), resolving the gap
// where the driver existed but was never invoked from production.
func (d *Driver) RunReclassificationDrain(ctx context.Context) {
	d.guard(ctx, "reclassification_drain", func(ctx context.Context) error {
		_, err := d.reclassifier.Run(ctx)
		return err
	})
}

// RunClassifierMetricsSnapshot is the 6-hourly classifier metrics
// snapshot job.
func (d *Driver) RunClassifierMetricsSnapshot(ctx context.Context) {
	d.guard(ctx, "classifier_metrics_snapshot", func(ctx context.Context) error {
		return d.metrics.Run(ctx)
	})
}

// RunMergeCandidatesRefresh is the daily 03:00 UTC merge-candidates
// cache refresh job.
func (d *Driver) RunMergeCandidatesRefresh(ctx context.Context) {
	d.guard(ctx, "merge_candidates_cache_refresh", func(ctx context.Context) error {
		_, _, err := d.companies.RefreshMergeCandidatesCache(ctx)
		return err
	})
}

// RunWebinarReminders is the 5-minute webinar reminder materialization
// job.
func (d *Driver) RunWebinarReminders(ctx context.Context) {
	d.guard(ctx, "webinar_reminders", func(ctx context.Context) error {
		_, err := d.webinars.MaterializeReminders(ctx)
		return err
	})
}

// RunScheduledNewsletters is the 15-minute scheduled-newsletter send
// job.
func (d *Driver) RunScheduledNewsletters(ctx context.Context) {
	d.guard(ctx, "scheduled_newsletters", func(ctx context.Context) error {
		_, err := d.newsletters.SendDue(ctx)
		return err
	})
}

// RunMondayNewsletter is the weekly Monday 09:00 UTC auto-newsletter
// generation job. cmd/worker registers it daily at 09:00 UTC; the
// weekday check here makes every day but Monday a no-op.
func (d *Driver) RunMondayNewsletter(ctx context.Context) {
	if time.Now().UTC().Weekday() != time.Monday {
		return
	}
	d.guard(ctx, "monday_newsletter_generation", func(ctx context.Context) error {
		_, err := d.newsletters.GenerateWeekly(ctx)
		return err
	})
}

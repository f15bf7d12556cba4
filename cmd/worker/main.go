package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/andreypavlenko/crmcore/internal/config"
	"github.com/andreypavlenko/crmcore/internal/platform/llm"
	"github.com/andreypavlenko/crmcore/internal/platform/logger"
	"github.com/andreypavlenko/crmcore/internal/platform/mailer"
	"github.com/andreypavlenko/crmcore/internal/platform/outbound"
	"github.com/andreypavlenko/crmcore/internal/platform/postgres"
	"github.com/andreypavlenko/crmcore/internal/platform/redis"
	"github.com/andreypavlenko/crmcore/internal/platform/scraper"
	"github.com/andreypavlenko/crmcore/internal/platform/sentryhub"
	"github.com/andreypavlenko/crmcore/internal/platform/storage"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	companyRepo "github.com/andreypavlenko/crmcore/modules/companies/repository"
	companyService "github.com/andreypavlenko/crmcore/modules/companies/service"
	contactRepo "github.com/andreypavlenko/crmcore/modules/contacts/repository"
	importRepo "github.com/andreypavlenko/crmcore/modules/imports/repository"
	importService "github.com/andreypavlenko/crmcore/modules/imports/service"
	newsletterRepo "github.com/andreypavlenko/crmcore/modules/newsletter/repository"
	newsletterService "github.com/andreypavlenko/crmcore/modules/newsletter/service"
	notifyRepo "github.com/andreypavlenko/crmcore/modules/notify/repository"
	notifyService "github.com/andreypavlenko/crmcore/modules/notify/service"
	personaRepo "github.com/andreypavlenko/crmcore/modules/persona/repository"
	personaService "github.com/andreypavlenko/crmcore/modules/persona/service"
	quotaRepo "github.com/andreypavlenko/crmcore/modules/quota/repository"
	quotaService "github.com/andreypavlenko/crmcore/modules/quota/service"
	schedulerRepo "github.com/andreypavlenko/crmcore/modules/scheduler/repository"
	schedulerService "github.com/andreypavlenko/crmcore/modules/scheduler/service"
	webinarRepo "github.com/andreypavlenko/crmcore/modules/webinar/repository"
	webinarService "github.com/andreypavlenko/crmcore/modules/webinar/service"
)

// Command worker runs the full periodic driver substrate described by
// the scheduler module (spec §4.4): import dispatch, orphan recovery,
// due-schedule dispatch, reclassification drain, classifier metrics
// snapshot, merge-candidates cache refresh, webinar reminders, both
// newsletter jobs, and the audit-row retention sweep, each on an independent robfig/cron entry so a
// slow tick on one job never delays another.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	if err := sentryhub.Init(cfg.Sentry); err != nil {
		appLogger.Warn("failed to initialize Sentry, continuing without error reporting", zap.Error(err))
	}
	defer sentryhub.Flush(2 * time.Second)

	appLogger.Info("starting jobber worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgClient, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		appLogger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pgClient.Close()

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		appLogger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	if cfg.S3.Endpoint == "" || cfg.S3.Bucket == "" {
		appLogger.Fatal("S3 configuration is required for the worker binary")
	}
	s3Client, err := storage.NewS3Client(cfg.S3)
	if err != nil {
		appLogger.Fatal("failed to initialize S3 client", zap.Error(err))
	}

	jobRepository := importRepo.NewJobRepository(pgClient.Pool)
	lockRepository := importRepo.NewLockRepository(pgClient.Pool)
	auditRepository := importRepo.NewAuditRepository(pgClient.Pool)
	fileStore := importRepo.NewS3FileStore(s3Client)
	contactRepository := contactRepo.NewContactRepository(pgClient.Pool)
	companyRepository := companyRepo.NewCompanyRepository(pgClient.Pool)
	keywordRepository := personaRepo.NewKeywordRepository(pgClient.Pool)
	metricsRepository := personaRepo.NewMetricsRepository(pgClient.Pool)
	notificationRepository := notifyRepo.NewNotificationRepository(pgClient.Pool)
	emailLogRepository := notifyRepo.NewEmailLogRepository(pgClient.Pool)
	searchKeywordRepository := quotaRepo.NewSearchKeywordRepository(pgClient.Pool)
	alertRepository := quotaRepo.NewAlertRepository(pgClient.Pool)
	scheduleRepository := schedulerRepo.NewScheduleRepository(pgClient.Pool)
	webinarEventRepository := webinarRepo.NewEventRepository(pgClient.Pool)
	newsletterRepository := newsletterRepo.NewNewsletterRepository(pgClient.Pool)

	companySvc := companyService.NewCompanyService(companyRepository)
	classifierSvc := personaService.NewClassifierService(keywordRepository, redisClient, appLogger)
	classifierSvc.StartInvalidationListener(ctx)
	reclassificationDriver := personaService.NewReclassificationDriver(classifierSvc, contactRepository, appLogger)
	metricsDriver := personaService.NewMetricsDriver(contactRepository, metricsRepository)

	mailerClient := mailer.New(cfg.Mailer)
	llmAdapter := llm.New(cfg.LLM)
	scraperActor := scraper.New()
	if err := scraperActor.Connect(); err != nil {
		appLogger.Warn("failed to connect headless browser actor, scraping schedules will fail", zap.Error(err))
	}
	defer scraperActor.Close()

	positionSearchActor := outbound.New("https://api.apify.com", 60*time.Second, map[string]string{
		"Authorization": "Bearer " + cfg.Outbound.ApifyToken,
	})

	notifySvc := notifyService.NewNotifyService(notificationRepository, emailLogRepository, mailerClient, appLogger)
	quotaSvc := quotaService.NewQuotaService(searchKeywordRepository, alertRepository, contactRepository, positionSearchActor, cfg.Outbound, cfg.WeeklyGoals, appLogger)
	webinarSvc := webinarService.NewService(webinarEventRepository, contactRepository, emailLogRepository, notifySvc, appLogger)
	newsletterSvc := newsletterService.NewService(newsletterRepository, contactRepository, webinarEventRepository, llmAdapter, notifySvc, appLogger)

	schedulerDriver := schedulerService.NewDriver(
		scheduleRepository,
		quotaSvc,
		companySvc,
		reclassificationDriver,
		metricsDriver,
		webinarSvc,
		newsletterSvc,
		scraperActor,
		notifySvc,
		appLogger,
	)

	importWorker := importService.NewWorker(
		workerID(),
		jobRepository,
		lockRepository,
		auditRepository,
		fileStore,
		contactRepository,
		companySvc,
		classifierSvc,
		appLogger,
	)

	var wg sync.WaitGroup
	c := cron.New(cron.WithLocation(time.UTC))

	registerJob := func(spec string, fn func()) {
		_, err := c.AddFunc(spec, func() {
			wg.Add(1)
			defer wg.Done()
			fn()
		})
		if err != nil {
			appLogger.Fatal("failed to register cron job", zap.String("spec", spec), zap.Error(err))
		}
	}

	dispatchSpec := secondsToCronSpec(cfg.Scheduler.DispatchIntervalS)

	registerJob(dispatchSpec, func() { runImportDispatch(ctx, importWorker, appLogger) })

	registerJob(dispatchSpec, func() {
		if n, err := importWorker.RecoverOrphans(ctx); err != nil {
			appLogger.Error("orphan recovery sweep failed", zap.Error(err))
		} else if n > 0 {
			appLogger.Info("orphan recovery sweep recovered jobs", zap.Int("count", n))
		}
	})

	registerJob(secondsToCronSpec(cfg.Scheduler.ReclassifyIntervalS), func() {
		schedulerDriver.RunReclassificationDrain(ctx)
	})

	registerJob(secondsToCronSpec(cfg.Scheduler.WebinarIntervalS), func() {
		schedulerDriver.RunWebinarReminders(ctx)
	})

	registerJob(secondsToCronSpec(cfg.Scheduler.NewsletterIntervalS), func() {
		schedulerDriver.RunScheduledNewsletters(ctx)
	})

	registerJob(secondsToCronSpec(cfg.Scheduler.ScrapeIntervalS), func() {
		schedulerDriver.RunDueSchedules(ctx)
	})

	registerJob(secondsToCronSpec(cfg.Scheduler.ClassifierMetricsIntervalS), func() {
		schedulerDriver.RunClassifierMetricsSnapshot(ctx)
	})

	// Merge-candidates cache refresh and the Monday auto-newsletter both
	// run daily at fixed UTC times; the Monday job no-ops on every
	// weekday but Monday (Driver.RunMondayNewsletter checks the date).
	registerJob("0 3 * * *", func() { schedulerDriver.RunMergeCandidatesRefresh(ctx) })
	registerJob("0 9 * * *", func() { schedulerDriver.RunMondayNewsletter(ctx) })

	// Daily audit-row retention sweep (conflicts/invalid_rows/parse_failures).
	importJobSvc := importService.NewJobService(jobRepository, auditRepository, fileStore)
	registerJob("0 4 * * *", func() {
		if n, err := importJobSvc.ReapExpiredAudit(ctx); err != nil {
			appLogger.Error("audit retention sweep failed", zap.Error(err))
		} else if n > 0 {
			appLogger.Info("audit retention sweep removed rows", zap.Int("count", n))
		}
	})

	c.Start()
	appLogger.Info("cron scheduler started", zap.Int("jobs", len(c.Entries())))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	appLogger.Info("received shutdown signal", zap.String("signal", sig.String()))

	cronCtx := c.Stop()
	cancel()

	select {
	case <-cronCtx.Done():
	case <-time.After(30 * time.Second):
		appLogger.Warn("cron scheduler stop timed out")
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		appLogger.Info("all in-flight jobs complete")
	case <-time.After(60 * time.Second):
		appLogger.Warn("timed out waiting for in-flight jobs")
	}

	appLogger.Info("worker shutdown complete")
}

// runImportDispatch drains the claimable queue on each tick instead of
// claiming at most one job per tick, so a backlog doesn't wait for the
// next dispatch interval to clear (spec §4.4 "dispatch the import
// worker").
func runImportDispatch(ctx context.Context, w *importService.Worker, log *logger.Logger) {
	for {
		ran, err := w.Tick(ctx)
		if err != nil {
			log.Error("import dispatch tick failed", zap.Error(err))
			return
		}
		if !ran {
			return
		}
	}
}

func secondsToCronSpec(seconds int) string {
	if seconds <= 0 {
		seconds = 10
	}
	return "@every " + time.Duration(seconds*int(time.Second)).String()
}

func workerID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "worker-unknown"
	}
	return host
}

// Package scheduler runs the background loop that finds due reminders,
// delivers them and advances their schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/hray3182/remindcall/internal/delivery"
	"github.com/hray3182/remindcall/internal/models"
	"github.com/hray3182/remindcall/internal/recurrence"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Store is the subset of the reminder store the dispatcher needs.
type Store interface {
	Ping(ctx context.Context) error
	FindDue(ctx context.Context, now time.Time) ([]*models.Reminder, error)
	FindUpcoming(ctx context.Context, now time.Time, horizon time.Duration) ([]*models.Reminder, error)
	RecordDispatch(ctx context.Context, id string, dispatchedAt time.Time, next *time.Time) (bool, error)
}

type Options struct {
	Interval        time.Duration
	DeliveryTimeout time.Duration
	UpcomingHorizon time.Duration
	// StopTimeout bounds how long Stop waits for an in-flight tick.
	StopTimeout time.Duration
	Clock       clockwork.Clock
}

func (o *Options) withDefaults() {
	if o.Interval <= 0 {
		o.Interval = 30 * time.Second
	}
	if o.DeliveryTimeout <= 0 {
		o.DeliveryTimeout = 45 * time.Second
	}
	if o.UpcomingHorizon <= 0 {
		o.UpcomingHorizon = time.Hour
	}
	if o.StopTimeout <= 0 {
		o.StopTimeout = 2 * time.Minute
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
}

// TickReport summarises one poll tick.
type TickReport struct {
	At      time.Time
	Skipped bool
	Due     int
	// Delivered counts successful deliveries, whether or not the store
	// accepted the follow-up write.
	Delivered  int
	Failed     int
	Stale      int
	Unrecorded int
	Upcoming   []*models.Reminder
}

// Scheduler is the single dispatcher instance owned by the process.
type Scheduler struct {
	store     Store
	deliverer delivery.Deliverer
	logger    *zap.SugaredLogger
	opts      Options

	mu      sync.Mutex
	cron    gocron.Scheduler
	job     gocron.Job
	cancel  context.CancelFunc
	running atomic.Bool
}

func New(store Store, deliverer delivery.Deliverer, logger *zap.SugaredLogger, opts Options) *Scheduler {
	opts.withDefaults()
	return &Scheduler{
		store:     store,
		deliverer: deliverer,
		logger:    logger,
		opts:      opts,
	}
}

// Start begins ticking at the configured interval, with the first tick run
// immediately. Calling Start while running is a no-op. The scheduler keeps
// running after ctx is cancelled; only Stop ends it.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running.Load() {
		return nil
	}

	cron, err := gocron.NewScheduler(
		gocron.WithClock(s.opts.Clock),
		gocron.WithLogger(gocronLogger{s.logger}),
		gocron.WithStopTimeout(s.opts.StopTimeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	job, err := cron.NewJob(
		gocron.DurationJob(s.opts.Interval),
		gocron.NewTask(func() {
			s.Tick(runCtx)
		}),
		gocron.WithName("dispatch-due-reminders"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		cancel()
		_ = cron.Shutdown()
		return fmt.Errorf("failed to schedule dispatch job: %w", err)
	}

	cron.Start()
	s.cron = cron
	s.job = job
	s.cancel = cancel
	s.running.Store(true)

	s.logger.Infow("Scheduler started", "interval", s.opts.Interval)
	return nil
}

// Stop ceases scheduling ticks and waits for an in-flight tick to finish.
// Calling Stop while stopped is a no-op.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running.Load() {
		return nil
	}

	err := s.cron.Shutdown()
	s.cancel()
	s.cron = nil
	s.job = nil
	s.running.Store(false)

	if err != nil {
		return fmt.Errorf("scheduler shutdown: %w", err)
	}
	s.logger.Info("Scheduler stopped")
	return nil
}

func (s *Scheduler) IsRunning() bool {
	return s.running.Load()
}

// Notify triggers an immediate tick. It is dropped if a tick is already
// running or the scheduler is stopped.
func (s *Scheduler) Notify() {
	s.mu.Lock()
	job := s.job
	s.mu.Unlock()

	if job == nil {
		return
	}
	if err := job.RunNow(); err != nil {
		s.logger.Warnw("Failed to trigger dispatch", "error", err)
	}
}

// Tick runs one scan-and-dispatch cycle.
func (s *Scheduler) Tick(ctx context.Context) TickReport {
	now := s.opts.Clock.Now()
	report := TickReport{At: now}

	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warnw("Reminder store unavailable, skipping tick", "error", err)
		report.Skipped = true
		return report
	}

	due, err := s.store.FindDue(ctx, now)
	if err != nil {
		s.logger.Errorw("Failed to find due reminders, skipping tick", "error", err)
		report.Skipped = true
		return report
	}
	report.Due = len(due)

	upcoming, err := s.store.FindUpcoming(ctx, now, s.opts.UpcomingHorizon)
	if err != nil {
		s.logger.Warnw("Failed to find upcoming reminders", "error", err)
	}
	report.Upcoming = upcoming
	for _, r := range upcoming {
		s.logger.Debugw("Upcoming reminder", "reminder_id", r.ID, "next_fire_at", r.NextFireAt)
	}

	for _, r := range due {
		if !r.IsDue(now) {
			s.logger.Warnw("Store returned a reminder that is not due, skipping", "reminder_id", r.ID, "next_fire_at", r.NextFireAt)
			continue
		}
		s.dispatch(ctx, now, r, &report)
	}

	if report.Due > 0 || len(report.Upcoming) > 0 {
		s.logger.Infow("Dispatch tick finished",
			"due", report.Due,
			"delivered", report.Delivered,
			"failed", report.Failed,
			"stale", report.Stale,
			"unrecorded", report.Unrecorded,
			"upcoming", len(report.Upcoming))
	}
	return report
}

func (s *Scheduler) dispatch(ctx context.Context, now time.Time, r *models.Reminder, report *TickReport) {
	if err := s.deliver(ctx, r); err != nil {
		report.Failed++
		s.logger.Warnw("Reminder delivery failed, will retry next tick",
			"reminder_id", r.ID,
			"recipient", r.RecipientHandle,
			"error", err)
		return
	}
	report.Delivered++

	var next *time.Time
	if t, active := recurrence.Advance(r.NextFireAt, r.Recurrence); active {
		next = &t
	}

	ok, err := s.store.RecordDispatch(ctx, r.ID, now, next)
	switch {
	case err != nil:
		report.Unrecorded++
		s.logger.Errorw("Failed to record dispatch, reminder may be delivered again",
			"reminder_id", r.ID, "error", err)
	case !ok:
		report.Stale++
		s.logger.Infow("Reminder cancelled during dispatch", "reminder_id", r.ID)
	case next == nil:
		s.logger.Infow("Reminder dispatched and retired", "reminder_id", r.ID, "fire_count", r.FireCount+1)
	default:
		s.logger.Infow("Reminder dispatched",
			"reminder_id", r.ID,
			"fire_count", r.FireCount+1,
			"next_fire_at", *next)
	}
}

// deliver runs one delivery under the per-delivery timeout. A panicking
// channel is reported as a failure for this reminder only.
func (s *Scheduler) deliver(ctx context.Context, r *models.Reminder) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("delivery panic: %v", p)
		}
	}()

	dctx, cancel := context.WithTimeout(ctx, s.opts.DeliveryTimeout)
	defer cancel()
	return s.deliverer.Deliver(dctx, delivery.NoticeFor(r))
}

// gocronLogger routes scheduler library logs through zap.
type gocronLogger struct {
	l *zap.SugaredLogger
}

func (g gocronLogger) Debug(msg string, args ...any) { g.l.Debugw(msg, args...) }
func (g gocronLogger) Error(msg string, args ...any) { g.l.Errorw(msg, args...) }
func (g gocronLogger) Info(msg string, args ...any)  { g.l.Debugw(msg, args...) }
func (g gocronLogger) Warn(msg string, args ...any)  { g.l.Warnw(msg, args...) }

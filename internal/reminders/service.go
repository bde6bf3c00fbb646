// Package reminders holds the engine entrypoints used by the HTTP and
// Telegram surfaces: create, cancel and list reminders.
package reminders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hray3182/remindcall/internal/models"
	"github.com/hray3182/remindcall/internal/timeparse"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// ErrInvalidInput marks a request that failed validation.
var ErrInvalidInput = errors.New("invalid input")

type Store interface {
	Ping(ctx context.Context) error
	Create(ctx context.Context, reminder *models.Reminder) error
	Get(ctx context.Context, id string) (*models.Reminder, error)
	Cancel(ctx context.Context, id string) (bool, error)
	ListActiveFor(ctx context.Context, recipient string) ([]*models.Reminder, error)
	FindUpcoming(ctx context.Context, now time.Time, horizon time.Duration) ([]*models.Reminder, error)
	CountActive(ctx context.Context) (int, error)
}

// SchedulerHandle controls the dispatcher lifecycle.
type SchedulerHandle interface {
	Start(ctx context.Context) error
	Stop() error
	IsRunning() bool
	// Notify requests an immediate tick from a running scheduler.
	Notify()
}

type CreateInput struct {
	Recipient  string `json:"recipient" validate:"required,max=4096"`
	Subject    string `json:"subject" validate:"required,max=500"`
	Time       string `json:"time" validate:"max=200"`
	Recurrence string `json:"recurrence" validate:"max=32"`
	Owner      string `json:"owner,omitempty" validate:"max=200"`
}

type Service struct {
	store     Store
	scheduler SchedulerHandle
	clock     clockwork.Clock
	logger    *zap.SugaredLogger
	validate  *validator.Validate
	newID     func() string
}

func New(store Store, scheduler SchedulerHandle, clock clockwork.Clock, logger *zap.SugaredLogger) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		store:     store,
		scheduler: scheduler,
		clock:     clock,
		logger:    logger,
		validate:  validator.New(),
		newID:     uuid.NewString,
	}
}

// Create normalises the time expression against the current instant,
// stores the reminder and makes sure the dispatcher is running.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Reminder, error) {
	in.Recipient = strings.TrimSpace(in.Recipient)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Time = strings.TrimSpace(in.Time)
	in.Owner = strings.TrimSpace(in.Owner)

	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidInput, describe(verrs))
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	rec, err := models.ParseRecurrence(in.Recurrence)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	reminder := &models.Reminder{
		ID:                 s.newID(),
		SubjectDescription: in.Subject,
		RawTimeExpression:  in.Time,
		Recurrence:         rec,
		NextFireAt:         timeparse.Normalize(in.Time, now),
		CreatedAt:          now,
		Active:             true,
		RecipientHandle:    in.Recipient,
	}
	if in.Owner != "" {
		owner := in.Owner
		reminder.OwnerRef = &owner
	}

	if err := s.store.Create(ctx, reminder); err != nil {
		if errors.Is(err, models.ErrDuplicateID) {
			return nil, err
		}
		return nil, unavailable("create reminder", err)
	}

	s.logger.Infow("Reminder created",
		"reminder_id", reminder.ID,
		"recipient", reminder.RecipientHandle,
		"recurrence", reminder.Recurrence,
		"next_fire_at", reminder.NextFireAt)

	s.ensureScheduler(ctx)
	return reminder, nil
}

// Cancel deactivates a reminder. It reports false when no active reminder
// with that id exists.
func (s *Service) Cancel(ctx context.Context, id string) (bool, error) {
	ok, err := s.store.Cancel(ctx, strings.TrimSpace(id))
	if err != nil {
		return false, unavailable("cancel reminder", err)
	}
	if ok {
		s.logger.Infow("Reminder cancelled", "reminder_id", id)
	}
	return ok, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Reminder, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		return nil, unavailable("get reminder", err)
	}
	return r, nil
}

func (s *Service) ListActive(ctx context.Context, recipient string) ([]*models.Reminder, error) {
	rs, err := s.store.ListActiveFor(ctx, strings.TrimSpace(recipient))
	if err != nil {
		return nil, unavailable("list reminders", err)
	}
	return rs, nil
}

func (s *Service) Upcoming(ctx context.Context, horizon time.Duration) ([]*models.Reminder, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("%w: horizon must be positive", ErrInvalidInput)
	}
	rs, err := s.store.FindUpcoming(ctx, s.clock.Now(), horizon)
	if err != nil {
		return nil, unavailable("list upcoming reminders", err)
	}
	return rs, nil
}

// Resume starts the dispatcher when the store already holds active
// reminders, so a restart keeps dispatching without a new creation.
func (s *Service) Resume(ctx context.Context) (int, error) {
	n, err := s.store.CountActive(ctx)
	if err != nil {
		return 0, unavailable("count active reminders", err)
	}
	if n > 0 {
		s.ensureScheduler(ctx)
	}
	return n, nil
}

type Health struct {
	Store     string `json:"store"`
	Scheduler string `json:"scheduler"`
}

func (h Health) OK() bool {
	return h.Store == "ok"
}

func (s *Service) Health(ctx context.Context) Health {
	h := Health{Store: "ok", Scheduler: "stopped"}
	if err := s.store.Ping(ctx); err != nil {
		h.Store = "unavailable"
	}
	if s.scheduler.IsRunning() {
		h.Scheduler = "running"
	}
	return h
}

// DispatchNow asks a running scheduler for an immediate tick. It reports
// false when the scheduler is stopped.
func (s *Service) DispatchNow() bool {
	if !s.scheduler.IsRunning() {
		return false
	}
	s.scheduler.Notify()
	return true
}

// ensureScheduler starts the scheduler, whose first tick runs at once, or
// nudges it when it is already running so a reminder due before the next
// interval is not held back.
func (s *Service) ensureScheduler(ctx context.Context) {
	if s.scheduler.IsRunning() {
		s.scheduler.Notify()
		return
	}
	if err := s.scheduler.Start(ctx); err != nil {
		s.logger.Errorw("Failed to start scheduler", "error", err)
	}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", models.ErrUnavailable, op, err)
}

func describe(verrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			parts = append(parts, field+" is required")
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return strings.Join(parts, ", ")
}

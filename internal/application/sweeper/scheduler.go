// Package sweeper runs the periodic reservation and event passes.
package sweeper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/go-wishlist-api/internal/application/notification"
	"github.com/go-wishlist-api/internal/application/reservation"
	"github.com/go-wishlist-api/internal/clock"
	"github.com/go-wishlist-api/internal/config"
	"github.com/go-wishlist-api/internal/domain"
	"github.com/go-wishlist-api/internal/infrastructure/metrics"
	"github.com/hashicorp/go-multierror"
)

// Pass names, also used as metric labels and by the admin endpoint.
const (
	PassHourly = "hourly"
	PassDaily  = "daily"
)

// Summary is the outcome of one pass.
type Summary struct {
	Pass      string `json:"pass"`
	Processed int    `json:"processed"`
	Notified  int    `json:"notified"`
	Failed    int    `json:"failed"`
}

type reservationSweeps interface {
	ExpireDue(ctx context.Context, now time.Time) (reservation.Report, error)
	RemindApproaching(ctx context.Context, now time.Time, horizon time.Duration) (reservation.Report, error)
}

type eventStore interface {
	ListByDate(ctx context.Context, date string) ([]domain.Event, error)
	MarkReminderSent(ctx context.Context, eventID, day string) (bool, error)
}

type invitationStore interface {
	ListByEvent(ctx context.Context, eventID string) ([]domain.EventInvitation, error)
}

type notifier interface {
	Dispatch(ctx context.Context, in notification.DispatchInput) (*domain.Notification, error)
}

// Scheduler owns the sweep timers. A single goroutine drives both tickers
// and passMu serializes ticks with manual runs, so passes never interleave.
type Scheduler struct {
	ledger      reservationSweeps
	events      eventStore
	invitations invitationStore
	notifier    notifier
	cfg         config.SweeperConfig

	clock   clock.Clock
	logger  *slog.Logger
	metrics *metrics.Metrics

	passMu sync.Mutex

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

type Option func(*Scheduler)

func WithClock(c clock.Clock) Option { return func(s *Scheduler) { s.clock = c } }

func WithLogger(l *slog.Logger) Option { return func(s *Scheduler) { s.logger = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *Scheduler) { s.metrics = m } }

func NewScheduler(ledger reservationSweeps, events eventStore, invitations invitationStore, n notifier, cfg config.SweeperConfig, opts ...Option) *Scheduler {
	s := &Scheduler{
		ledger:      ledger,
		events:      events,
		invitations: invitations,
		notifier:    n,
		cfg:         cfg,
		clock:       clock.NewSystem(),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the timer loop, which runs both passes once before the first
// tick. Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true
	go s.loop(ctx, s.done)
	s.logger.Info("sweeper started", "hourly", s.cfg.HourlyInterval, "daily", s.cfg.DailyInterval)
}

// Stop ends the loop and waits for an in-flight pass to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done
	s.logger.Info("sweeper stopped")
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	hourly := time.NewTicker(s.cfg.HourlyInterval)
	defer hourly.Stop()
	daily := time.NewTicker(s.cfg.DailyInterval)
	defer daily.Stop()

	// A restart resets both tickers, so catch up once before waiting. Both
	// passes are claim-guarded and safe to repeat.
	s.runAll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hourly.C:
			if _, err := s.RunHourly(ctx); err != nil {
				s.logger.Error("hourly sweep failed", "err", err)
			}
		case <-daily.C:
			if _, err := s.RunDaily(ctx); err != nil {
				s.logger.Error("daily sweep failed", "err", err)
			}
		}
	}
}

func (s *Scheduler) runAll(ctx context.Context) {
	if _, err := s.RunHourly(ctx); err != nil {
		s.logger.Error("startup hourly sweep failed", "err", err)
	}
	if _, err := s.RunDaily(ctx); err != nil {
		s.logger.Error("startup daily sweep failed", "err", err)
	}
}

// RunHourly expires due reservations, then reminds reservers whose checkpoint
// is within the reminder horizon. Expiration always runs first.
func (s *Scheduler) RunHourly(ctx context.Context) (Summary, error) {
	s.passMu.Lock()
	defer s.passMu.Unlock()

	now := s.clock.Now()
	sum := Summary{Pass: PassHourly}
	var merr *multierror.Error

	expired, err := s.ledger.ExpireDue(ctx, now)
	if err != nil {
		merr = multierror.Append(merr, err)
	}
	s.record("expire", expired)
	if perItem := expired.Err(); perItem != nil {
		s.logger.Warn("expire pass had failures", "failed", expired.Failed, "err", perItem)
	}

	reminded, err := s.ledger.RemindApproaching(ctx, now, s.cfg.ReminderHorizon)
	if err != nil {
		merr = multierror.Append(merr, err)
	}
	s.record("remind", reminded)
	if perItem := reminded.Err(); perItem != nil {
		s.logger.Warn("reminder pass had failures", "failed", reminded.Failed, "err", perItem)
	}

	sum.Processed = expired.Items + reminded.Items
	sum.Notified = expired.Notified + reminded.Notified
	sum.Failed = expired.Failed + reminded.Failed
	s.logger.Info("hourly sweep done",
		"expired_items", expired.Items, "expired_reservations", expired.Reservations,
		"reminded_items", reminded.Items, "notified", sum.Notified, "failed", sum.Failed)
	return sum, merr.ErrorOrNil()
}

func (s *Scheduler) record(pass string, rep reservation.Report) {
	s.metrics.SweepProcessed(pass, "ok", rep.Items-rep.Failed)
	s.metrics.SweepProcessed(pass, "error", rep.Failed)
}

// RunDaily reminds invitees of events held EventReminderDaysOut days from
// today. Declined invitees are skipped; each event is reminded once per day.
func (s *Scheduler) RunDaily(ctx context.Context) (Summary, error) {
	s.passMu.Lock()
	defer s.passMu.Unlock()

	sum := Summary{Pass: PassDaily}
	today := s.clock.Now().UTC()
	day := today.Format(domain.EventDateLayout)
	target := today.AddDate(0, 0, s.cfg.EventReminderDaysOut).Format(domain.EventDateLayout)

	events, err := s.events.ListByDate(ctx, target)
	if err != nil {
		return sum, fmt.Errorf("list events on %s: %w", target, err)
	}
	for i := range events {
		ev := &events[i]
		sent, err := s.remindEvent(ctx, ev, day)
		sum.Notified += sent
		if err != nil {
			sum.Failed++
			s.logger.Warn("event reminder failed", "event_id", ev.EventID, "err", err)
			continue
		}
		sum.Processed++
	}
	s.metrics.SweepProcessed("event_reminder", "ok", sum.Processed)
	s.metrics.SweepProcessed("event_reminder", "error", sum.Failed)
	s.logger.Info("daily sweep done", "date", target, "events", len(events), "notified", sum.Notified, "failed", sum.Failed)
	return sum, nil
}

func (s *Scheduler) remindEvent(ctx context.Context, ev *domain.Event, day string) (int, error) {
	claimed, err := s.events.MarkReminderSent(ctx, ev.EventID, day)
	if err != nil {
		return 0, err
	}
	if !claimed {
		return 0, nil
	}
	invitations, err := s.invitations.ListByEvent(ctx, ev.EventID)
	if err != nil {
		return 0, err
	}

	creator := ev.CreatorID
	var merr *multierror.Error
	sent := 0
	for _, inv := range invitations {
		if !inv.Open() {
			continue
		}
		_, err := s.notifier.Dispatch(ctx, notification.DispatchInput{
			RecipientID: inv.InviteeID,
			SenderID:    &creator,
			Type:        domain.NotificationEventReminder,
			Title:       ev.Title,
			MessageKey:  string(domain.NotificationEventReminder),
			Vars:        map[string]string{"event_title": ev.Title, "event_date": ev.Date},
			RelatedID:   &ev.EventID,
		})
		if err != nil {
			merr = multierror.Append(merr, fmt.Errorf("notify %s: %w", inv.InviteeID, err))
			continue
		}
		sent++
	}
	return sent, merr.ErrorOrNil()
}

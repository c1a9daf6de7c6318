package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"raidbot/internal/clock"
	"raidbot/internal/domain"
	"raidbot/internal/notify"
	"raidbot/internal/repository"
)

// Scheduler evaluates upcoming raids on a fixed poll interval and fires each
// (raid, threshold) reminder exactly once.
type Scheduler interface {
	Start(ctx context.Context) error
	Shutdown()
	// EvaluateTick runs a single evaluation pass at the given instant.
	// Exposed so tests can drive discrete ticks with a fake clock.
	EvaluateTick(ctx context.Context, now time.Time)
}

type Config struct {
	// PollInterval is P from the windowed threshold test. It must not
	// exceed the gap between adjacent thresholds.
	PollInterval time.Duration
	// Thresholds are minutes before start at which reminders fire.
	Thresholds []int
	Clock      clock.Clock
	Logger     *logrus.Logger
}

type reminderScheduler struct {
	cfg       Config
	raids     repository.RaidRepository
	users     repository.UserRepository
	reminders repository.ReminderRepository
	sink      notify.Sink

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(cfg Config, raids repository.RaidRepository, users repository.UserRepository, reminders repository.ReminderRepository, sink notify.Sink) Scheduler {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 50 * time.Second
	}
	if len(cfg.Thresholds) == 0 {
		cfg.Thresholds = []int{30, 10}
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.System{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &reminderScheduler{
		cfg:       cfg,
		raids:     raids,
		users:     users,
		reminders: reminders,
		sink:      sink,
	}
}

func (s *reminderScheduler) Start(ctx context.Context) error {
	if err := validateThresholds(s.cfg.Thresholds, s.cfg.PollInterval); err != nil {
		return err
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.run()
	s.cfg.Logger.Infof("reminder scheduler started, poll interval %s, thresholds %v min", s.cfg.PollInterval, s.cfg.Thresholds)
	return nil
}

func (s *reminderScheduler) Shutdown() {
	if s.cancel != nil {
		s.cancel()
	}
	// in-flight deliveries from the current tick are allowed to finish
	s.wg.Wait()
	s.cfg.Logger.Info("reminder scheduler stopped")
}

// validateThresholds rejects a poll interval wide enough to straddle two
// thresholds in one tick, which would break the one-tick-per-threshold
// guarantee of the window test.
func validateThresholds(thresholds []int, poll time.Duration) error {
	for i := range thresholds {
		if thresholds[i] <= 0 {
			return fmt.Errorf("reminder threshold must be positive, got %d", thresholds[i])
		}
		for j := i + 1; j < len(thresholds); j++ {
			gap := thresholds[i] - thresholds[j]
			if gap < 0 {
				gap = -gap
			}
			if gap == 0 {
				return fmt.Errorf("duplicate reminder threshold %d", thresholds[i])
			}
			if poll > time.Duration(gap)*time.Minute {
				return fmt.Errorf("poll interval %s exceeds threshold gap %dm", poll, gap)
			}
		}
	}
	return nil
}

func (s *reminderScheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	// cancellation is checked at tick boundaries only; the tick body runs on
	// an uncancellable context so a stop signal landing mid-tick cannot abort
	// the fan-out after a fired marker was already persisted
	tickCtx := context.WithoutCancel(s.ctx)

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.EvaluateTick(tickCtx, s.cfg.Clock.Now())
		}
	}
}

func (s *reminderScheduler) EvaluateTick(ctx context.Context, now time.Time) {
	now = now.UTC()

	raids, err := s.raids.ListUpcoming(ctx, now)
	if err != nil {
		s.cfg.Logger.WithError(err).Error("list upcoming raids")
		return
	}

	for i := range raids {
		if err := s.evaluateRaid(ctx, &raids[i], now); err != nil {
			// skip this raid for this tick only
			s.cfg.Logger.WithError(err).WithField("raid_id", raids[i].ID).Warn("evaluate raid")
		}
	}
}

func (s *reminderScheduler) evaluateRaid(ctx context.Context, raid *domain.Raid, now time.Time) error {
	remaining := raid.StartTime.Sub(now)

	for _, minutes := range s.cfg.Thresholds {
		threshold := time.Duration(minutes) * time.Minute
		// fire only when now falls inside [start-t, start-t+P); a bare
		// minutes-remaining equality can skip the crossing entirely when
		// ticks drift across minute boundaries
		if remaining > threshold || remaining <= threshold-s.cfg.PollInterval {
			continue
		}

		claimed, err := s.reminders.MarkFired(ctx, raid.ID, minutes, now)
		if err != nil {
			return err
		}
		if !claimed {
			continue
		}
		if err := s.fire(ctx, raid, minutes); err != nil {
			return err
		}
	}
	return nil
}

// fire gathers the recipient set and dispatches deliveries. The fired marker
// is already persisted, so a delivery failure never re-fires the threshold.
func (s *reminderScheduler) fire(ctx context.Context, raid *domain.Raid, minutes int) error {
	participantIDs, err := s.raids.ParticipantIDs(ctx, raid.ID)
	if err != nil {
		return err
	}

	recipients := make(map[int64]struct{}, len(participantIDs)+1)
	chatIDs := make([]int64, 0, len(participantIDs)+1)
	for _, userID := range append([]int64{raid.CreatorID}, participantIDs...) {
		if _, seen := recipients[userID]; seen {
			continue
		}
		recipients[userID] = struct{}{}

		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			s.cfg.Logger.WithError(err).WithField("user_id", userID).Warn("resolve reminder recipient")
			continue
		}
		chatIDs = append(chatIDs, user.TelegramID)
	}

	burstID := uuid.NewString()
	text := fmt.Sprintf("Raid %q starts in %d minutes (%s UTC)", raid.Boss, minutes, raid.StartTime.Format("15:04"))
	logger := s.cfg.Logger.WithFields(logrus.Fields{
		"raid_id":   raid.ID,
		"threshold": minutes,
		"burst_id":  burstID,
	})
	logger.Infof("firing reminder to %d recipients", len(chatIDs))

	for _, chatID := range chatIDs {
		chatID := chatID
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.sink.Send(ctx, chatID, text); err != nil {
				logger.WithError(err).WithField("recipient", chatID).Warn("reminder delivery failed")
			}
		}()
	}
	return nil
}

var _ Scheduler = (*reminderScheduler)(nil)

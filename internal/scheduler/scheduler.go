package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/provalab/internal/database"
	"github.com/example/provalab/internal/league"
	"github.com/example/provalab/internal/logger"
)

// Notification window defaults. Reminders are only sent inside it.
const (
	DefaultNotificationStartHour = 8
	DefaultNotificationEndHour   = 22
)

// Notifier sends a due-review reminder to a user chat.
type Notifier interface {
	SendReminder(chatID int64, dueCount int) error
}

// Scheduler manages the recurring background jobs: the weekly league
// rollover and the hourly review reminder sweep.
type Scheduler struct {
	scheduler *gocron.Scheduler
	log       *logger.Logger
	users     *database.UserRepository
	reviews   *database.ReviewStateRepository
	leagues   *league.Engine
	notifier  Notifier

	startHour int
	endHour   int
}

// New creates a scheduler over the given repositories. The notifier may
// be nil, in which case the reminder sweep is not scheduled.
func New(log *logger.Logger, users *database.UserRepository, reviews *database.ReviewStateRepository, leagues *league.Engine, notifier Notifier) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		log:       log.With("component", "scheduler"),
		users:     users,
		reviews:   reviews,
		leagues:   leagues,
		notifier:  notifier,
		startHour: DefaultNotificationStartHour,
		endHour:   DefaultNotificationEndHour,
	}
}

// SetNotificationWindow overrides the hours inside which reminders may
// be sent.
func (s *Scheduler) SetNotificationWindow(start, end int) {
	if start >= 0 && start <= 23 {
		s.startHour = start
	}
	if end >= 0 && end <= 23 {
		s.endHour = end
	}
}

// Start registers the jobs and begins running them asynchronously.
func (s *Scheduler) Start() {
	// League week closes Monday 00:00 UTC; run shortly after to let
	// in-flight answers land on the previous epoch.
	s.scheduler.Every(1).Week().Monday().At("00:05").Do(s.rolloverLeagues)

	if s.notifier != nil {
		s.scheduler.Every(1).Hour().Do(s.checkAndSendReminders)
	}

	s.scheduler.StartAsync()
}

// Stop terminates all scheduled jobs.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// RolloverNow closes the previous league week immediately. It is the
// same operation the weekly job runs and is safe to call repeatedly.
func (s *Scheduler) RolloverNow(ctx context.Context) error {
	return s.leagues.RolloverAll(ctx, time.Now().UTC())
}

func (s *Scheduler) rolloverLeagues() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := s.leagues.RolloverAll(ctx, time.Now().UTC()); err != nil {
		s.log.Error("league rollover failed", "error", err)
		return
	}
	s.log.Info("league rollover completed")
}

// checkAndSendReminders finds users whose configured reminder hour is
// now and who have reviews due, and pings them.
func (s *Scheduler) checkAndSendReminders() {
	now := time.Now().UTC()
	currentHour := now.Hour()

	if currentHour < s.startHour || currentHour > s.endHour {
		s.log.Debug("outside notification window, skipping reminders",
			"hour", currentHour, "start", s.startHour, "end", s.endHour)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	users, err := s.users.GetUsersForReminder(ctx, currentHour)
	if err != nil {
		s.log.Error("failed to load users for reminder", "error", err)
		return
	}

	for _, user := range users {
		if !user.TelegramChatID.Valid {
			continue
		}
		dueCount, err := s.reviews.CountDue(ctx, user.ID, now)
		if err != nil {
			s.log.Error("failed to count due reviews", "user_id", user.ID, "error", err)
			continue
		}
		if dueCount == 0 {
			continue
		}
		if err := s.notifier.SendReminder(user.TelegramChatID.Int64, dueCount); err != nil {
			s.log.Error("failed to send reminder", "user_id", user.ID, "error", err)
		}
	}
}

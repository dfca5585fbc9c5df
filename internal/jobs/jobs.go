// Package jobs holds the task bodies the periodic runner can invoke.
//
// Bodies are registered under stable string keys at process start; admin
// scheduled tasks reference them by those keys.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"homehub/internal/notify"
	"homehub/internal/runner"
	"homehub/internal/store"
	logx "homehub/pkg/logx"
)

// Registry keys for the built-in task bodies.
const (
	KeyEventReminder = "jobs.event_reminder"
	KeyDailyMenu     = "jobs.daily_menu"
	KeyHeartbeat     = "jobs.heartbeat"
)

var (
	// ErrNoDishes means no food has at least one ingredient.
	ErrNoDishes = errors.New("no dishes")

	// ErrNoUsers means nobody has a device key to push to.
	ErrNoUsers = errors.New("no users")
)

type Service struct {
	users  *store.UserStore
	events *store.EventStore
	foods  *store.FoodStore
	sender notify.Sender
	log    logx.Logger

	// now is swappable in tests.
	now func() time.Time
}

func New(users *store.UserStore, events *store.EventStore, foods *store.FoodStore, sender notify.Sender, log logx.Logger) *Service {
	return &Service{
		users:  users,
		events: events,
		foods:  foods,
		sender: sender,
		log:    log,
		now:    time.Now,
	}
}

// RegisterAll populates the runner registry with every built-in task body.
func (s *Service) RegisterAll(reg *runner.Registry) {
	reg.Register(KeyEventReminder, "per-user event countdown push", s.EventReminder)
	reg.Register(KeyDailyMenu, "daily menu suggestion push", s.DailyMenu)
	reg.Register(KeyHeartbeat, "log-only liveness check", s.Heartbeat)
}

// Heartbeat only proves the runner fired.
func (s *Service) Heartbeat(ctx context.Context) error {
	s.log.Info("heartbeat")
	return nil
}

// EventReminder pushes each user a summary of their events with the days
// remaining until each target date (negative when overdue). Users without
// events are skipped silently.
func (s *Service) EventReminder(ctx context.Context) error {
	users, err := s.users.All(ctx)
	if err != nil {
		return err
	}

	today := s.today()
	for _, u := range users {
		events, err := s.events.ByUser(ctx, u.ID)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			continue
		}

		lines := make([]string, 0, len(events))
		for _, e := range events {
			target, err := time.Parse("2006-01-02", e.TargetDate)
			if err != nil {
				s.log.Warn("skipping event with bad target date",
					logx.Int64("event", e.ID), logx.String("target_date", e.TargetDate))
				continue
			}
			days := int(target.Sub(today).Hours() / 24)
			lines = append(lines, fmt.Sprintf("- %s: 还有 %d 天到期", e.Name, days))
		}
		if len(lines) == 0 {
			continue
		}

		if err := s.sender.Send(ctx, u.DeviceKey, strings.Join(lines, "\n"), "Daily Events"); err != nil {
			s.log.Warn("event reminder push failed", logx.Int64("user", u.ID), logx.Err(err))
		}
	}
	return nil
}

// DailyMenu samples at most two foods that have ingredients and pushes the
// suggestion to every user with a device key.
func (s *Service) DailyMenu(ctx context.Context) error {
	foods, err := s.foods.RandomWithIngredients(ctx, 2)
	if err != nil {
		return err
	}
	if len(foods) == 0 {
		return ErrNoDishes
	}

	lines := make([]string, 0, len(foods))
	for _, f := range foods {
		names, err := s.foods.IngredientNames(ctx, f.ID)
		if err != nil {
			return err
		}
		ing := "(no ingredients)"
		if len(names) > 0 {
			ing = strings.Join(names, ", ")
		}
		lines = append(lines, fmt.Sprintf("%s：%s", f.Name, ing))
	}
	body := strings.Join(lines, "\n")

	users, err := s.users.WithDeviceKey(ctx)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		return ErrNoUsers
	}

	for _, u := range users {
		if err := s.sender.Send(ctx, u.DeviceKey, body, "今日菜单"); err != nil {
			s.log.Warn("daily menu push failed", logx.Int64("user", u.ID), logx.Err(err))
		}
	}
	return nil
}

// today is the current calendar date pinned to UTC midnight. Target dates
// parse to UTC midnights too, so the difference between the two is always
// an exact multiple of 24 hours regardless of local DST transitions.
func (s *Service) today() time.Time {
	now := s.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

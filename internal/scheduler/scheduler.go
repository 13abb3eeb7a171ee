package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"draftbot/internal/config"
	"draftbot/internal/domain"
)

// Pipeline is the subset of the draft lifecycle the clock drives.
type Pipeline interface {
	CreateDailyDraft(ctx context.Context) (*domain.Draft, error)
	IngestWeeklyMLS(ctx context.Context) (*domain.Draft, error)
}

// Scheduler fires the daily news pass and the weekly MLS pass at their
// configured local wall-clock times. Runs are sequential per job; a slow
// pass delays the next tick rather than overlapping it.
type Scheduler struct {
	pipeline  Pipeline
	loc       *time.Location
	dailyAt   clockTime
	weeklyDay time.Weekday
	weeklyAt  clockTime
	logger    *slog.Logger
}

type clockTime struct {
	hour   int
	minute int
}

func New(pipeline Pipeline, cfg config.SchedulerConfig, logger *slog.Logger) (*Scheduler, error) {
	dailyAt, err := parseClock(cfg.DailyAt)
	if err != nil {
		return nil, fmt.Errorf("parse daily_at: %w", err)
	}

	weeklyAt, err := parseClock(cfg.WeeklyAt)
	if err != nil {
		return nil, fmt.Errorf("parse weekly_at: %w", err)
	}

	weeklyDay, err := parseWeekday(cfg.WeeklyDay)
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		pipeline:  pipeline,
		loc:       cfg.Location(),
		dailyAt:   dailyAt,
		weeklyDay: weeklyDay,
		weeklyAt:  weeklyAt,
		logger:    logger,
	}, nil
}

// Start blocks until the context is cancelled, running both jobs.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started",
		"daily_at", fmt.Sprintf("%02d:%02d", s.dailyAt.hour, s.dailyAt.minute),
		"weekly_day", s.weeklyDay.String(),
		"timezone", s.loc.String(),
	)

	done := make(chan struct{}, 2)

	go func() {
		s.runJob(ctx, "daily news pass", s.nextDaily, func(jobCtx context.Context) error {
			_, err := s.pipeline.CreateDailyDraft(jobCtx)
			return err
		})
		done <- struct{}{}
	}()

	go func() {
		s.runJob(ctx, "weekly mls pass", s.nextWeekly, func(jobCtx context.Context) error {
			_, err := s.pipeline.IngestWeeklyMLS(jobCtx)
			return err
		})
		done <- struct{}{}
	}()

	<-ctx.Done()
	<-done
	<-done
	s.logger.Info("scheduler stopped")
	return ctx.Err()
}

func (s *Scheduler) runJob(ctx context.Context, name string, next func(time.Time) time.Time, run func(context.Context) error) {
	for {
		now := time.Now().In(s.loc)
		wait := next(now).Sub(now)

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		jobCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		if err := run(jobCtx); err != nil {
			s.logger.Error("scheduled job failed", "job", name, "error", err)
		}
		cancel()
	}
}

func (s *Scheduler) nextDaily(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.dailyAt.hour, s.dailyAt.minute, 0, 0, s.loc)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (s *Scheduler) nextWeekly(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.weeklyAt.hour, s.weeklyAt.minute, 0, 0, s.loc)
	offset := (int(s.weeklyDay) - int(now.Weekday()) + 7) % 7
	next = next.AddDate(0, 0, offset)
	if !next.After(now) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

func parseClock(value string) (clockTime, error) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return clockTime{}, err
	}
	return clockTime{hour: parsed.Hour(), minute: parsed.Minute()}, nil
}

func parseWeekday(value string) (time.Weekday, error) {
	for day := time.Sunday; day <= time.Saturday; day++ {
		if strings.EqualFold(day.String(), value) {
			return day, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", value)
}

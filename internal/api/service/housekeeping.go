package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/userapi/internal/api/store"

	"github.com/robfig/cron/v3"
)

const DefaultHousekeepingSchedule = "@every 1h"

// HousekeepingService deletes expired and revoked refresh tokens on a cron
// schedule so the table does not grow without bound.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Schedule string

	cron    *cron.Cron
	job     cron.Job
	initial sync.WaitGroup
}

// NewHousekeepingService parses schedule (standard cron or a descriptor such
// as "@every 30m"). An empty schedule means DefaultHousekeepingSchedule.
func NewHousekeepingService(st store.Store, logger *slog.Logger, schedule string) (*HousekeepingService, error) {
	if schedule == "" {
		schedule = DefaultHousekeepingSchedule
	}

	cl := cronLogger{log: logger}
	c := cron.New(cron.WithLogger(cl))

	s := &HousekeepingService{
		Store:    st,
		Logger:   logger,
		Schedule: schedule,
		cron:     c,
	}
	s.job = cron.NewChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)).
		Then(cron.FuncJob(s.cleanup))

	if _, err := c.AddJob(schedule, s.job); err != nil {
		return nil, fmt.Errorf("housekeeping schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start runs one cleanup right away and then follows the schedule. It does
// not block.
func (s *HousekeepingService) Start() {
	s.initial.Add(1)
	go func() {
		defer s.initial.Done()
		s.job.Run()
	}()
	s.cron.Start()
	s.Logger.Info("housekeeping service started", slog.String("schedule", s.Schedule))
}

// Stop waits for any running cleanup to finish.
func (s *HousekeepingService) Stop() {
	<-s.cron.Stop().Done()
	s.initial.Wait()
	s.Logger.Info("housekeeping service stopped")
}

// RunOnce deletes stale refresh tokens and returns how many went.
func (s *HousekeepingService) RunOnce(ctx context.Context) (int64, error) {
	return s.Store.RefreshTokens().DeleteStaleRefreshTokens(ctx, time.Now())
}

func (s *HousekeepingService) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.RunOnce(ctx)
	if err != nil {
		s.Logger.Error("failed to delete stale refresh tokens", slog.Any("error", err))
		return
	}
	s.Logger.Info("housekeeping cleanup completed", slog.Int64("refresh_tokens_deleted", n))
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append([]any{slog.Any("error", err)}, keysAndValues...)...)
}

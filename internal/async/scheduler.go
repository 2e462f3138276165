package async

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// TickFunc is called once per tenant code on every schedule tick.
type TickFunc func(ctx context.Context, tenantCode string) error

// TenantSource lists tenant codes when no fixed list is configured.
type TenantSource func(ctx context.Context) ([]string, error)

// Scheduler fires a validation for each configured tenant on a cron schedule.
type Scheduler struct {
	schedule cron.Schedule
	spec     string
	tenants  []string
	source   TenantSource
	tick     TickFunc
	logger   *slog.Logger
	now      func() time.Time
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// NewScheduler parses a standard 5-field cron expression or an @descriptor.
func NewScheduler(spec string, tenants []string, tick TickFunc, logger *slog.Logger) (*Scheduler, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, errors.New("schedule is empty")
	}
	sched, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		schedule: sched,
		spec:     spec,
		tenants:  tenants,
		tick:     tick,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// WithTenantSource sets the lookup used on ticks when the fixed tenant list is empty.
func (s *Scheduler) WithTenantSource(src TenantSource) *Scheduler {
	s.source = src
	return s
}

// Next returns the first activation after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

// Run blocks until ctx ends, firing tick for every tenant at each activation.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("scheduler.start", "schedule", s.spec, "tenants", s.tenants)
	for {
		now := s.now()
		next := s.schedule.Next(now)
		wait := next.Sub(now)
		s.logger.Debug("scheduler.next", "at", next, "in", wait.Round(time.Second))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("scheduler.stop")
			return
		case <-timer.C:
		}
		s.fire(ctx)
	}
}

func (s *Scheduler) fire(ctx context.Context) {
	codes := s.tenants
	if len(codes) == 0 && s.source != nil {
		var err error
		if codes, err = s.source(ctx); err != nil {
			s.logger.Error("scheduler.tenants.failed", "error", err)
			return
		}
	}
	s.logger.Info("scheduler.tick", "tenants", len(codes))
	for _, code := range codes {
		if err := s.tick(ctx, code); err != nil {
			s.logger.Warn("scheduler.tick.failed", "tenant", code, "error", err)
		}
	}
}

package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job — периодически запускаемая работа.
type Job func(ctx context.Context)

// Scheduler запускает job сразу при старте и далее по cron-расписанию.
type Scheduler struct {
	cron *cron.Cron
	spec string
	job  Job
	log  zerolog.Logger

	startup sync.WaitGroup
}

// New проверяет расписание и создаёт планировщик.
func New(spec string, loc *time.Location, job Job, logger zerolog.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	cronLog := logger.With().Str("component", "cron").Logger()
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cron.PrintfLogger(&cronLog))),
	)
	return &Scheduler{cron: c, spec: spec, job: job, log: logger}, nil
}

// Start выполняет job немедленно и регистрирует его в cron.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() {
		if ctx.Err() != nil {
			return
		}
		s.job(ctx)
	}); err != nil {
		return fmt.Errorf("add schedule: %w", err)
	}
	s.startup.Add(1)
	go func() {
		defer s.startup.Done()
		s.job(ctx)
	}()
	s.cron.Start()
	s.log.Info().Str("spec", s.spec).Msg("scheduler: запущен")
	return nil
}

// Stop останавливает cron и ждёт завершения запущенных задач, включая стартовый прогон.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.startup.Wait()
	s.log.Info().Msg("scheduler: остановлен")
}

// Next возвращает время следующего запуска после from.
func Next(spec string, from time.Time) (time.Time, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(from), nil
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"roe-outage-bot/internal/domain"
	"roe-outage-bot/internal/infra/metrics"
	"roe-outage-bot/internal/usecase/notify"
	"roe-outage-bot/internal/usecase/schedule"
)

// Outcome — итог одного прогона.
type Outcome string

const (
	OutcomeOK               Outcome = "ok"
	OutcomeExtractionFailed Outcome = "extraction_failed"
	OutcomeTransportFailed  Outcome = "transport_failed"
	OutcomePanicked         Outcome = "panicked"
	OutcomeSkipped          Outcome = "skipped"
)

// RunReport описывает результат RunOnce.
type RunReport struct {
	RunID          string        `json:"run_id"`
	StartedAt      time.Time     `json:"started_at"`
	Outcome        Outcome       `json:"outcome"`
	Action         notify.Action `json:"action,omitempty"`
	MessageID      int           `json:"message_id,omitempty"`
	RetryScheduled bool          `json:"retry_scheduled"`
	Error          string        `json:"error,omitempty"`
	Err            error         `json:"-"`
}

// Options настраивает контроллер.
type Options struct {
	LockKey  string
	LockTTL  time.Duration
	Location *time.Location
	Now      func() time.Time
}

// Controller выполняет прогон «извлечь → отформатировать → опубликовать»
// и планирует повтор при ошибке извлечения.
type Controller struct {
	base      context.Context
	extractor domain.Extractor
	machine   *notify.Machine
	retry     *RetryPolicy
	lock      domain.RunLock
	opts      Options
	log       zerolog.Logger

	inflight sync.Mutex

	mu      sync.Mutex
	state   notify.State
	last    RunReport
	hasLast bool
}

// NewController создаёт контроллер. base используется для отложенных повторов;
// lock может быть nil, тогда достаточно блокировки внутри процесса.
func NewController(base context.Context, extractor domain.Extractor, machine *notify.Machine, retry *RetryPolicy, lock domain.RunLock, opts Options, logger zerolog.Logger) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.LockKey == "" {
		opts.LockKey = "roe-outage-bot:run"
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 2 * time.Minute
	}
	return &Controller{
		base:      base,
		extractor: extractor,
		machine:   machine,
		retry:     retry,
		lock:      lock,
		opts:      opts,
		log:       logger,
	}
}

// RunOnce выполняет один прогон. Ошибки не пробрасываются: они попадают в отчёт и лог.
func (c *Controller) RunOnce(ctx context.Context) RunReport {
	return c.runOnce(ctx, false)
}

// runOnce при retried=true заново взводит повтор, если прогон пропущен
// из-за уже выполняющегося: тот мог завершиться ошибкой, пока повтор ждал.
func (c *Controller) runOnce(ctx context.Context, retried bool) (report RunReport) {
	report = RunReport{RunID: uuid.NewString(), StartedAt: c.opts.Now()}
	log := c.log.With().Str("run_id", report.RunID).Logger()

	if !c.inflight.TryLock() {
		report.Outcome = OutcomeSkipped
		report.Err = domain.ErrRunInFlight
		report.Error = report.Err.Error()
		metrics.PipelineRunsTotal.WithLabelValues(string(report.Outcome)).Inc()
		log.Warn().Msg("pipeline: предыдущий прогон ещё выполняется, пропускаем")
		if retried {
			c.scheduleRetry(log, &report)
		}
		return report
	}
	defer c.inflight.Unlock()
	defer c.record(&report)
	defer func() {
		if p := recover(); p != nil {
			report.Outcome = OutcomePanicked
			report.Err = fmt.Errorf("panic: %v", p)
			log.Error().Err(report.Err).Msg("pipeline: прогон аварийно завершён")
			c.scheduleRetry(log, &report)
		}
	}()

	if c.lock == nil {
		c.run(ctx, log, &report)
		return report
	}

	acquired, err := c.lock.WithLock(ctx, c.opts.LockKey, c.opts.LockTTL, func() error {
		c.run(ctx, log, &report)
		return nil
	})
	switch {
	case acquired:
		if err != nil {
			log.Warn().Err(err).Msg("pipeline: ошибка освобождения блокировки")
		}
	case err != nil:
		log.Warn().Err(err).Msg("pipeline: распределённая блокировка недоступна, выполняем локально")
		c.run(ctx, log, &report)
	default:
		report.Outcome = OutcomeSkipped
		report.Err = domain.ErrRunInFlight
		log.Info().Msg("pipeline: прогон выполняет другая реплика")
	}
	return report
}

func (c *Controller) run(ctx context.Context, log zerolog.Logger, report *RunReport) {
	rec, err := c.extractor.Extract(ctx)
	if err != nil {
		report.Outcome = OutcomeExtractionFailed
		report.Err = err
		metrics.ExtractionFailuresTotal.WithLabelValues(extractionKind(err)).Inc()
		log.Error().Err(err).Str("kind", extractionKind(err)).Msg("pipeline: не удалось получить график")
		c.scheduleRetry(log, report)
		return
	}

	body := schedule.Render(rec, c.opts.Now().In(c.opts.Location))

	c.mu.Lock()
	state := c.state
	c.mu.Unlock()

	next, res := c.machine.Publish(ctx, state, body)

	c.mu.Lock()
	c.state = next
	c.mu.Unlock()

	report.Action = res.Action
	report.MessageID = res.MessageID
	if res.Err != nil {
		report.Outcome = OutcomeTransportFailed
		report.Err = res.Err
		return
	}
	report.Outcome = OutcomeOK
}

func (c *Controller) scheduleRetry(log zerolog.Logger, report *RunReport) {
	if c.retry.Arm(c.retryRun) {
		report.RetryScheduled = true
		metrics.RetriesScheduledTotal.Inc()
		log.Warn().Dur("delay", c.retry.Delay()).Msg("pipeline: повторный прогон запланирован")
	} else {
		log.Warn().Msg("pipeline: повторный прогон уже запланирован")
	}
	metrics.SetRetryPending(c.retry.Pending() > 0)
}

func (c *Controller) retryRun() {
	metrics.SetRetryPending(c.retry.Pending() > 0)
	if c.base.Err() != nil {
		return
	}
	c.log.Info().Msg("pipeline: запуск повторного прогона")
	c.runOnce(c.base, true)
}

func (c *Controller) record(report *RunReport) {
	if report.Err != nil {
		report.Error = report.Err.Error()
	}
	metrics.PipelineRunsTotal.WithLabelValues(string(report.Outcome)).Inc()

	c.mu.Lock()
	c.last = *report
	c.hasLast = true
	c.mu.Unlock()
}

// State возвращает текущее состояние уведомления.
func (c *Controller) State() notify.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastReport возвращает отчёт последнего завершённого прогона.
func (c *Controller) LastReport() (RunReport, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last, c.hasLast
}

// RetryPending сообщает, ожидает ли запуска повтор.
func (c *Controller) RetryPending() bool {
	return c.retry.Pending() > 0
}

// Stop отменяет ожидающий повтор.
func (c *Controller) Stop() {
	c.retry.Stop()
	metrics.SetRetryPending(false)
}

func extractionKind(err error) string {
	var ee *domain.ExtractionError
	if errors.As(err, &ee) {
		return string(ee.Kind)
	}
	return "unknown"
}

// Package jobs запускает периодические фоновые задачи сервиса.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rajivgeraev/cardswap-api/internal/logger"
	"github.com/rajivgeraev/cardswap-api/internal/metrics"
)

// Counter считает записи в хранилище
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// CounterFunc адаптер функции к Counter
type CounterFunc func(ctx context.Context) (int, error)

func (f CounterFunc) Count(ctx context.Context) (int, error) { return f(ctx) }

// Scheduler обёртка над cron с общими для задач настройками
type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration
	log     *logger.Logger
}

// NewScheduler создаёт планировщик. Задача пропускается, если предыдущий
// запуск ещё не закончился; паника в задаче логируется.
func NewScheduler(log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.NewDefault("jobs")
	}
	cronLog := cron.PrintfLogger(log)
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLog),
			cron.SkipIfStillRunning(cronLog),
		)),
		timeout: 10 * time.Second,
		log:     log,
	}
}

// Every регистрирует задачу с периодом interval
func (s *Scheduler) Every(name string, interval time.Duration, fn func(ctx context.Context) error) error {
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", name)
	}
	_, err := s.cron.AddFunc("@every "+interval.String(), func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			s.log.WithError(err).WithField("job", name).Warn("задача завершилась с ошибкой")
		}
	})
	if err != nil {
		return fmt.Errorf("job %s: %w", name, err)
	}
	s.log.WithField("job", name).WithField("interval", interval.String()).Info("задача запланирована")
	return nil
}

// Start запускает планировщик в отдельной горутине
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop останавливает планировщик и ждёт завершения запущенных задач
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("не дождались завершения фоновых задач")
	}
}

// RefreshStats обновляет gauge-метрики числа открытых обменов и размера каталога
func RefreshStats(trades, cards Counter) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		open, err := trades.Count(ctx)
		if err != nil {
			return fmt.Errorf("count open trades: %w", err)
		}
		total, err := cards.Count(ctx)
		if err != nil {
			return fmt.Errorf("count cards: %w", err)
		}
		metrics.SetOpenTrades(open)
		metrics.SetCatalogSize(total)
		return nil
	}
}

package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// PriceRefresher reloads cached day-ahead prices for one country.
type PriceRefresher interface {
	Refresh(ctx context.Context, country string) error
}

// Scheduler periodically warms the day-ahead price cache for configured countries.
type Scheduler struct {
	scheduler *gocron.Scheduler
	prices    PriceRefresher
	countries []string
	interval  time.Duration
	timeout   time.Duration
	log       *zap.Logger
}

// New creates a new Scheduler.
func New(countries []string, interval time.Duration, prices PriceRefresher, log *zap.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		prices:    prices,
		countries: countries,
		interval:  interval,
		timeout:   30 * time.Second,
		log:       log.Named("scheduler"),
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run happens immediately.
func (s *Scheduler) Start() error {
	if len(s.countries) == 0 {
		s.log.Info("no price countries configured; nothing to schedule")
		return nil
	}

	if s.interval <= 0 {
		return fmt.Errorf("invalid refresh interval %s", s.interval)
	}

	_, err := s.scheduler.Every(s.interval).Do(s.RunOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.log.Info("price refresh scheduled", zap.Strings("countries", s.countries), zap.Duration("every", s.interval))
	return nil
}

// RunOnce refreshes every configured country concurrently. Failures are
// logged and never stop the job.
func (s *Scheduler) RunOnce() {
	s.log.Debug("running price refresh job")

	var wg sync.WaitGroup
	for _, country := range s.countries {
		wg.Add(1)
		go func(country string) {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			defer cancel()

			if err := s.prices.Refresh(ctx, country); err != nil {
				s.log.Warn("price refresh failed", zap.String("country", country), zap.Error(err))
			}
		}(country)
	}
	wg.Wait()

	s.log.Debug("completed price refresh job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

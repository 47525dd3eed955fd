package worker

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/t3rntools/bridge-cycler/config"
	"github.com/t3rntools/bridge-cycler/logging"
	"github.com/t3rntools/bridge-cycler/utils"
	"github.com/t3rntools/bridge-cycler/wallet"
)

// countdownStep is how often the cooldown countdown is logged.
const countdownStep = 30 * time.Second

type Job struct {
	Index    int
	Total    int
	Wallet   *wallet.Wallet
	ProxyURL string
}

// RunnerFunc processes a single wallet end to end.
type RunnerFunc func(ctx context.Context, job *Job) error

// Scheduler fans wallet jobs out over a bounded worker pool and repeats the
// whole cycle after the configured cooldown.
type Scheduler struct {
	logger  logging.Logger
	workers int
	delays  *config.DelayConfig
	run     RunnerFunc
}

func NewScheduler(logger logging.Logger, workers int, delays *config.DelayConfig, run RunnerFunc) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	return &Scheduler{
		logger:  logger,
		workers: workers,
		delays:  delays,
		run:     run,
	}
}

// Run processes all jobs, then either returns (no cooldown configured) or
// sleeps through the cooldown and starts over. It only errors on context
// cancellation.
func (s *Scheduler) Run(ctx context.Context, jobs []*Job) error {
	for cycle := 1; ; cycle++ {
		s.logger.WithFields(logrus.Fields{
			"cycle":   cycle,
			"wallets": len(jobs),
		}).Info("Starting wallet cycle")
		s.runCycle(ctx, jobs)
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.delays.AfterCompletion <= 0 {
			s.logger.Info("All wallets processed")
			return nil
		}
		s.logger.Infof("All wallets processed, next cycle in %s", s.delays.AfterCompletion)
		if !s.countdown(ctx, s.delays.AfterCompletion) {
			return ctx.Err()
		}
	}
}

func (s *Scheduler) runCycle(ctx context.Context, jobs []*Job) {
	workers := s.workers
	if workers > len(jobs) {
		workers = len(jobs)
	}
	jobsCh := make(chan *Job)
	var wg sync.WaitGroup
	for w := 1; w <= workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for job := range jobsCh {
				s.process(ctx, worker, job)
				if s.delays.BetweenWallets > 0 && ctx.Err() == nil {
					utils.ContextSleep(ctx, s.delays.BetweenWallets)
				}
			}
		}(w)
	}
feed:
	for _, job := range jobs {
		select {
		case jobsCh <- job:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobsCh)
	wg.Wait()
}

func (s *Scheduler) process(ctx context.Context, worker int, job *Job) {
	logger := s.logger.WithFields(logrus.Fields{
		"worker": worker,
		"wallet": logging.MaskAddress(job.Wallet.Address.Hex()),
		"index":  job.Index + 1,
		"total":  job.Total,
	})
	defer func() {
		if r := recover(); r != nil {
			logger.WithField("panic", r).Errorf("Wallet run panicked:\n%s", debug.Stack())
			observeWalletRun("panic")
		}
	}()
	logger.Info("Processing wallet")
	if err := s.run(ctx, job); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		logger.WithError(err).Error("Wallet run failed")
		observeWalletRun("error")
		return
	}
	observeWalletRun("ok")
}

func (s *Scheduler) countdown(ctx context.Context, d time.Duration) bool {
	deadline := time.Now().Add(d)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return true
		}
		s.logger.Infof("Next cycle in %s", remaining.Round(time.Second))
		step := countdownStep
		if remaining < step {
			step = remaining
		}
		if utils.ContextSleep(ctx, step) == nil {
			return false
		}
	}
}

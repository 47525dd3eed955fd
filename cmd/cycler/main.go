package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/t3rntools/bridge-cycler/bridge"
	"github.com/t3rntools/bridge-cycler/bridgeapi"
	"github.com/t3rntools/bridge-cycler/chain"
	"github.com/t3rntools/bridge-cycler/config"
	"github.com/t3rntools/bridge-cycler/db"
	"github.com/t3rntools/bridge-cycler/entity"
	"github.com/t3rntools/bridge-cycler/logging"
	"github.com/t3rntools/bridge-cycler/order"
	"github.com/t3rntools/bridge-cycler/presenter"
	"github.com/t3rntools/bridge-cycler/repository"
	"github.com/t3rntools/bridge-cycler/utils"
	"github.com/t3rntools/bridge-cycler/wallet"
	"github.com/t3rntools/bridge-cycler/worker"
)

// shutdownGrace is how long a second interrupt is given before the process
// is terminated forcefully.
const shutdownGrace = 5 * time.Second

func main() {
	logger := logging.New()

	cfg, err := config.ReadConfigFromFile("config.yml")
	if err != nil {
		logger.WithError(err).Fatal("can't read config")
	}
	logger.SetLevel(cfg.LogLevel)

	var repo *repository.Repo
	if cfg.DBConfig != nil {
		dbConn, err2 := db.ConnectToDBAndMigrate(cfg.DBConfig)
		if err2 != nil {
			logger.WithError(err2).Fatal("can't connect to database and apply migrations")
		}
		defer dbConn.Close()
		repo = repository.NewRepo(dbConn)
	}

	if cfg.MetricsHost != "" {
		http.Handle("/metrics", promhttp.Handler())
		go func() {
			err2 := http.ListenAndServe(cfg.MetricsHost, nil)
			if err2 != nil {
				logger.WithError(err2).Fatal("can't start listener for prometheus metrics")
			}
		}()
	}

	if cfg.Presenter != nil && repo != nil {
		pr := presenter.NewPresenter(logger, repo)
		go func() {
			err2 := pr.Serve(cfg.Presenter.Host)
			if err2 != nil {
				logger.WithError(err2).Fatal("can't serve presenter")
			}
		}()
	}

	wallets, err := wallet.LoadKeys(cfg.KeysFile)
	if err != nil {
		logger.WithError(err).Fatal("can't load wallet keys")
	}
	logger.WithField("wallets", len(wallets)).Info("loaded wallets")

	proxies := &wallet.ProxyPool{}
	if cfg.UseProxy {
		proxies, err = wallet.LoadProxies(cfg.ProxiesFile)
		if err != nil {
			logger.WithError(err).Fatal("can't load proxies")
		}
		if proxies.Len() == 0 {
			logger.Warn("proxy usage is enabled but no proxies are loaded, running without proxies")
		} else {
			logger.WithField("proxies", proxies.Len()).Info("loaded proxies")
		}
	}

	jobs := make([]*worker.Job, len(wallets))
	for i, w := range wallets {
		jobs[i] = &worker.Job{
			Index:    i,
			Total:    len(wallets),
			Wallet:   w,
			ProxyURL: proxies.ForIndex(i),
		}
	}

	scheduler := worker.NewScheduler(logger, cfg.Workers, cfg.Delays, newWalletRunner(cfg, logger, repo))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err2 := scheduler.Run(ctx, jobs); err2 != nil && ctx.Err() == nil {
			logger.WithError(err2).Error("scheduler stopped")
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	select {
	case <-done:
		logger.Info("all work finished")
		return
	case <-c:
		logger.Warn("caught interrupt, gracefully terminating")
		cancel()
	}
	select {
	case <-done:
	case <-time.After(shutdownGrace):
		logger.Error("graceful shutdown timed out, terminating")
	case <-c:
		logger.Error("caught second interrupt, terminating")
	}
}

// newWalletRunner builds the per-wallet stack: an RPC connector and API
// client bound to the wallet's proxy, an order tracker and the orchestrator
// driving the transfer rounds.
func newWalletRunner(cfg *config.Config, logger logging.Logger, repo *repository.Repo) worker.RunnerFunc {
	retries := utils.RetryPolicy{
		MaxAttempts:   cfg.Retries.MaxAttempts,
		BackoffFactor: cfg.Retries.BackoffFactor,
		InitialWait:   cfg.Retries.InitialWait,
	}
	return func(ctx context.Context, job *worker.Job) error {
		walletLogger := logger.WithField("wallet", logging.MaskAddress(job.Wallet.Address.Hex()))
		connector := chain.NewConnector(cfg.Chains, walletLogger, job.Wallet.PrivateKey, job.ProxyURL, retries)
		defer connector.Close()

		api, err := bridgeapi.NewClient(cfg.API, walletLogger, job.ProxyURL, retries)
		if err != nil {
			return err
		}

		tracker := order.NewTracker(api, connector, walletLogger)
		var transfers entity.TransfersRepo
		if repo != nil {
			transfers = repo.Transfers
			tracker.OnTransition = newOrderEventRecorder(ctx, walletLogger, repo.OrderEvents)
		}
		return bridge.NewOrchestrator(cfg, walletLogger, connector, api, tracker, transfers).Run(ctx)
	}
}

func newOrderEventRecorder(ctx context.Context, logger logrus.FieldLogger, events entity.OrderEventsRepo) func(orderID common.Hash, status order.Status, attempt int) {
	return func(orderID common.Hash, status order.Status, attempt int) {
		err := events.Create(ctx, &entity.OrderEvent{
			OrderID: orderID,
			Status:  string(status),
			Attempt: attempt,
		})
		if err != nil {
			logger.WithError(err).Error("can't record order event")
		}
	}
}

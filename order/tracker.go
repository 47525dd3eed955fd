package order

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/t3rntools/bridge-cycler/bridgeapi"
	"github.com/t3rntools/bridge-cycler/utils"
)

const (
	DefaultPollInterval         = 5 * time.Second
	DefaultMaxAttempts          = 60
	DefaultUnknownStatusGrace   = 2 * time.Minute
	DefaultMaxConsecutiveErrors = 5

	// Proactive destination-chain probes start after this many poll
	// attempts and repeat at this cadence.
	probeStartAttempt = 8
	probeCadence      = 4
)

// Settlement is the terminal outcome of tracking one order.
type Settlement int

const (
	SettlementFailed Settlement = iota
	SettlementDelivered
	SettlementRefunded
)

func (s Settlement) String() string {
	switch s {
	case SettlementDelivered:
		return "delivered"
	case SettlementRefunded:
		return "refunded"
	}
	return "failed"
}

// Delivered reports whether the funds reached the destination chain.
func (s Settlement) Delivered() bool {
	return s == SettlementDelivered
}

type StatusAPI interface {
	GetOrder(ctx context.Context, orderID string) (*bridgeapi.Order, error)
}

// TxVerifier checks transaction success on a chain. Satisfied by
// chain.Connector.
type TxVerifier interface {
	VerifyTransaction(ctx context.Context, chainName string, txHash common.Hash) bool
}

// Tracker polls the bridge API for an order until it settles, falls through
// to a refund, or runs out of time. When the API misbehaves the tracker
// reconciles against the destination chain directly.
type Tracker struct {
	PollInterval         time.Duration
	MaxAttempts          int
	UnknownStatusGrace   time.Duration
	MaxConsecutiveErrors int

	// OnTransition fires once per observed status change.
	OnTransition func(orderID common.Hash, status Status, attempt int)

	api      StatusAPI
	verifier TxVerifier
	logger   logrus.FieldLogger
}

func NewTracker(api StatusAPI, verifier TxVerifier, logger logrus.FieldLogger) *Tracker {
	return &Tracker{
		PollInterval:         DefaultPollInterval,
		MaxAttempts:          DefaultMaxAttempts,
		UnknownStatusGrace:   DefaultUnknownStatusGrace,
		MaxConsecutiveErrors: DefaultMaxConsecutiveErrors,
		api:                  api,
		verifier:             verifier,
		logger:               logger,
	}
}

// AwaitSettlement blocks until the order reaches a terminal outcome. An
// unreachable API or an expired deadline resolves through the destination
// chain when a confirmation or execution hash is known.
func (t *Tracker) AwaitSettlement(ctx context.Context, orderID common.Hash, destChain string, deadline time.Time) Settlement {
	logger := t.logger.WithFields(logrus.Fields{
		"order_id":   orderID.Hex(),
		"dest_chain": destChain,
	})
	var (
		lastStatus         Status
		lastConfirmationTx string
		lastExecutionTx    string
		consecutiveErrors  int
		unknownSince       time.Time
	)
	for attempt := 1; attempt <= t.MaxAttempts; attempt++ {
		if time.Now().After(deadline) {
			logger.Warn("Order settlement deadline passed, checking the destination chain directly")
			return t.settle(logger, "deadline", t.verifyDestination(ctx, destChain, lastConfirmationTx, lastExecutionTx), lastStatus)
		}

		apiOrder, err := t.api.GetOrder(ctx, orderID.Hex())
		if err != nil {
			if ctx.Err() != nil {
				return SettlementFailed
			}
			consecutiveErrors++
			logger.WithError(err).WithField("attempt", attempt).Warn("Order status request failed")
			if consecutiveErrors >= t.MaxConsecutiveErrors {
				logger.Error("Too many consecutive status request failures, giving up on the order")
				return t.settle(logger, "api_unreachable", false, lastStatus)
			}
			if utils.ContextSleep(ctx, t.PollInterval) == nil {
				return SettlementFailed
			}
			continue
		}
		consecutiveErrors = 0

		status := StatusPlaced
		if apiOrder != nil {
			status = Status(apiOrder.Status)
			if apiOrder.ConfirmationTxHash != "" {
				lastConfirmationTx = apiOrder.ConfirmationTxHash
			}
			if apiOrder.ExecutionTxHash != "" {
				lastExecutionTx = apiOrder.ExecutionTxHash
			}
		}
		if status != lastStatus {
			logger.WithFields(logrus.Fields{
				"status":  string(status),
				"attempt": attempt,
			}).Infof("Order status: %s (%s)", status, status.Description())
			if t.OnTransition != nil {
				t.OnTransition(orderID, status, attempt)
			}
			lastStatus = status
		}

		switch {
		case status.IsSuccess():
			return t.settle(logger, string(status), true, status)
		case status.IsFailed():
			return t.settle(logger, string(status), false, status)
		case status == StatusExpired && (lastConfirmationTx != "" || lastExecutionTx != ""):
			// An expired order can still carry an execution hash when an
			// executor picked it up at the last moment.
			if t.verifyDestination(ctx, destChain, lastConfirmationTx, lastExecutionTx) {
				logger.Info("Expired order was executed on the destination chain after all")
				return t.settle(logger, "expired_executed", true, status)
			}
		}

		if status.Known() {
			unknownSince = time.Time{}
		} else {
			if unknownSince.IsZero() {
				unknownSince = time.Now()
			}
			if time.Since(unknownSince) >= t.UnknownStatusGrace {
				if t.verifyDestination(ctx, destChain, lastConfirmationTx, lastExecutionTx) {
					logger.WithField("status", string(status)).
						Info("Unrecognized status persisted, transfer confirmed on the destination chain")
					return t.settle(logger, "unknown_status", true, status)
				}
				// No destination confirmation yet, so the order may still
				// settle. Restart the grace window and keep polling.
				logger.WithField("status", string(status)).
					Warn("Unrecognized status persisted without destination confirmation, continuing to poll")
				unknownSince = time.Now()
			}
		}

		if attempt >= probeStartAttempt && attempt%probeCadence == 0 {
			if t.verifyDestination(ctx, destChain, lastConfirmationTx, lastExecutionTx) {
				logger.Info("Execution confirmed on the destination chain ahead of the API")
				return t.settle(logger, "probe_executed", true, status)
			}
		}

		if utils.ContextSleep(ctx, t.PollInterval) == nil {
			return SettlementFailed
		}
	}
	logger.Warn("Poll attempts exhausted, checking the destination chain directly")
	return t.settle(logger, "attempts_exhausted", t.verifyDestination(ctx, destChain, lastConfirmationTx, lastExecutionTx), lastStatus)
}

func (t *Tracker) settle(logger logrus.FieldLogger, outcome string, delivered bool, lastStatus Status) Settlement {
	s := SettlementFailed
	switch {
	case delivered:
		s = SettlementDelivered
	case lastStatus.IsRefundEligible():
		s = SettlementRefunded
	}
	observeSettlement(outcome, s)
	switch s {
	case SettlementDelivered:
		logger.Info("Order settled successfully")
	case SettlementRefunded:
		logger.Warn("Order missed execution, funds return to the source wallet")
	default:
		logger.Error("Order did not settle")
	}
	return s
}

// verifyDestination checks the transfer on the destination chain, preferring
// the order's confirmation transaction over the execution one.
func (t *Tracker) verifyDestination(ctx context.Context, destChain, confirmationTx, executionTx string) bool {
	txHash := confirmationTx
	if txHash == "" {
		txHash = executionTx
	}
	if txHash == "" {
		return false
	}
	return t.verifier.VerifyTransaction(ctx, destChain, common.HexToHash(txHash))
}

package bridge

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"

	"github.com/t3rntools/bridge-cycler/bridgeapi"
	"github.com/t3rntools/bridge-cycler/chain"
	"github.com/t3rntools/bridge-cycler/config"
	"github.com/t3rntools/bridge-cycler/entity"
	"github.com/t3rntools/bridge-cycler/logging"
	"github.com/t3rntools/bridge-cycler/order"
	"github.com/t3rntools/bridge-cycler/utils"
)

// OrderTimeout caps how long a single order is tracked before falling back
// to the destination chain.
const OrderTimeout = 15 * time.Minute

var ErrTransactionReverted = errors.New("bridge transaction reverted")

type Submitter interface {
	Address() common.Address
	GasPrice(ctx context.Context, chainName string) (*big.Int, error)
	EstimateGas(ctx context.Context, req *chain.TxRequest) (uint64, error)
	SendTransaction(ctx context.Context, req *chain.TxRequest) (*chain.TxResult, error)
	Receipt(ctx context.Context, chainName string, txHash common.Hash) *types.Receipt
}

type BridgeAPI interface {
	PriceUSD(ctx context.Context, apiChain, token string, amountWei *big.Int) (float64, error)
	Estimate(ctx context.Context, req *bridgeapi.EstimateRequest) (*bridgeapi.Estimate, error)
}

type SettlementTracker interface {
	AwaitSettlement(ctx context.Context, orderID common.Hash, destChain string, deadline time.Time) order.Settlement
}

type LegResult struct {
	TxHash    common.Hash
	OrderID   *common.Hash
	AmountWei *big.Int
	Delivered bool
}

// Orchestrator runs bridge transfer cycles for a single wallet.
type Orchestrator struct {
	chains    map[string]*config.ChainConfig
	bridgeCfg *config.BridgeConfig
	delays    *config.DelayConfig
	logger    logrus.FieldLogger
	submitter Submitter
	api       BridgeAPI
	tracker   SettlementTracker

	// transfers is optional, a nil repo disables history recording.
	transfers entity.TransfersRepo
}

func NewOrchestrator(
	cfg *config.Config,
	logger logrus.FieldLogger,
	submitter Submitter,
	api BridgeAPI,
	tracker SettlementTracker,
	transfers entity.TransfersRepo,
) *Orchestrator {
	return &Orchestrator{
		chains:    cfg.Chains,
		bridgeCfg: cfg.Bridge,
		delays:    cfg.Delays,
		logger:    logger,
		submitter: submitter,
		api:       api,
		tracker:   tracker,
		transfers: transfers,
	}
}

// Run executes the configured number of transfer rounds over the leg
// sequence, respecting the wallet and per-leg time budgets.
func (o *Orchestrator) Run(ctx context.Context) error {
	walletDeadline := time.Now().Add(o.bridgeCfg.WalletTimeout)
	legs := o.bridgeCfg.LegSequence()
	for round := 1; round <= o.bridgeCfg.RepeatCount; round++ {
		amount := RandomAmount(o.bridgeCfg.Amount)
		o.logger.WithFields(logrus.Fields{
			"round":  round,
			"rounds": o.bridgeCfg.RepeatCount,
			"amount": amount,
		}).Info("Starting transfer round")
		for i, leg := range legs {
			if err := ctx.Err(); err != nil {
				return err
			}
			if time.Now().After(walletDeadline) {
				o.logger.Warn("Wallet time budget exhausted, stopping its transfer rounds")
				return nil
			}
			legDeadline := time.Now().Add(o.bridgeCfg.LegTimeout)
			if legDeadline.After(walletDeadline) {
				legDeadline = walletDeadline
			}
			res, err := o.ExecuteLeg(ctx, leg, amount, legDeadline)
			if err != nil {
				o.logger.WithError(err).WithFields(logrus.Fields{
					"from_chain": leg.FromChain,
					"to_chain":   leg.ToChain,
				}).Error("Transfer leg failed, skipping the rest of the round")
				break
			}
			if !res.Delivered {
				o.logger.WithField("tx_hash", res.TxHash.Hex()).
					Warn("Transfer leg did not settle, skipping the rest of the round")
				break
			}
			if i < len(legs)-1 && o.delays.BetweenLegs > 0 {
				if utils.ContextSleep(ctx, o.delays.BetweenLegs) == nil {
					return ctx.Err()
				}
			}
		}
		if round < o.bridgeCfg.RepeatCount && o.delays.BetweenLegs > 0 {
			if utils.ContextSleep(ctx, o.delays.BetweenLegs) == nil {
				return ctx.Err()
			}
		}
	}
	return nil
}

// ExecuteLeg submits one bridge order and, unless completion waiting is
// disabled, tracks it to settlement.
func (o *Orchestrator) ExecuteLeg(ctx context.Context, leg *config.LegConfig, amount float64, legDeadline time.Time) (*LegResult, error) {
	fromCfg, ok := o.chains[leg.FromChain]
	if !ok {
		return nil, fmt.Errorf("source chain %q: %w", leg.FromChain, chain.ErrUnknownChain)
	}
	toCfg, ok := o.chains[leg.ToChain]
	if !ok {
		return nil, fmt.Errorf("destination chain %q: %w", leg.ToChain, chain.ErrUnknownChain)
	}

	amount = RoundAmount(amount)
	wei := ToWei(amount)
	logger := o.logger.WithFields(logrus.Fields{
		"wallet":     logging.MaskAddress(o.submitter.Address().Hex()),
		"from_chain": leg.FromChain,
		"to_chain":   leg.ToChain,
		"amount":     amount,
	})
	logger.Info("Preparing bridge transfer")

	if price, err := o.api.PriceUSD(ctx, fromCfg.APIName, fromCfg.NativeAsset, wei); err != nil {
		logger.WithError(err).Debug("Can't fetch USD price")
	} else {
		logger.Infof("Transfer value: $%.2f", price)
	}

	estimate, err := o.api.Estimate(ctx, &bridgeapi.EstimateRequest{
		FromAsset: fromCfg.NativeAsset,
		ToAsset:   toCfg.NativeAsset,
		FromChain: fromCfg.APIName,
		ToChain:   toCfg.APIName,
		AmountWei: wei.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("can't estimate bridge transfer: %w", err)
	}

	receiveAmount := wei
	if v, err := estimate.EstimatedReceivedAmountWei.BigInt(); err == nil {
		receiveAmount = v
	}
	maxReward := wei
	if v, err := estimate.MaxReward.BigInt(); err == nil {
		maxReward = v
	}
	calldata, err := BuildCalldata(toCfg.APIName, o.submitter.Address(), receiveAmount, maxReward)
	if err != nil {
		return nil, err
	}

	gasPrice, err := o.gasPrice(ctx, leg.FromChain, estimate)
	if err != nil {
		return nil, fmt.Errorf("can't get gas price: %w", err)
	}

	req := &chain.TxRequest{
		ChainName: leg.FromChain,
		To:        fromCfg.BridgeContract,
		Value:     wei,
		GasPrice:  gasPrice,
		Data:      calldata,
	}
	req.Gas, err = o.submitter.EstimateGas(ctx, req)
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{
		"to":             logging.MaskAddress(fromCfg.BridgeContract.Hex()),
		"value_wei":      wei.String(),
		"gas_price_gwei": new(big.Rat).SetFrac(gasPrice, big.NewInt(1e9)).FloatString(2),
		"gas_limit":      req.Gas,
	}).Info("Submitting bridge transaction")

	submittedAt := time.Now()
	txRes, err := o.submitter.SendTransaction(ctx, req)
	if err != nil {
		return nil, err
	}
	observeLegSubmitted(leg.FromChain, leg.ToChain)
	logger = logger.WithField("tx_hash", txRes.Hash.Hex())
	if txRes.Reverted {
		o.recordTransfer(ctx, leg, wei, txRes.Hash, nil, entity.TransferResultFailed)
		observeLegSettled(leg.FromChain, leg.ToChain, "reverted", submittedAt)
		return nil, fmt.Errorf("%w: %s", ErrTransactionReverted, txRes.RevertReason)
	}
	logger.Info("Bridge order submitted")

	res := &LegResult{TxHash: txRes.Hash, AmountWei: wei}
	receipt := txRes.Receipt
	if receipt == nil {
		receipt = o.submitter.Receipt(ctx, leg.FromChain, txRes.Hash)
	}
	orderID, err := order.ExtractID(receipt)
	if err != nil {
		o.recordTransfer(ctx, leg, wei, txRes.Hash, nil, entity.TransferResultFailed)
		observeLegSettled(leg.FromChain, leg.ToChain, "no_order_id", submittedAt)
		return res, fmt.Errorf("can't determine order id: %w", err)
	}
	res.OrderID = &orderID
	logger = logger.WithField("order_id", orderID.Hex())

	if !o.bridgeCfg.WaitForCompletion {
		logger.Info("Completion waiting is disabled, moving on")
		res.Delivered = true
		o.recordTransfer(ctx, leg, wei, txRes.Hash, res.OrderID, entity.TransferResultPending)
		observeLegSettled(leg.FromChain, leg.ToChain, "not_tracked", submittedAt)
		return res, nil
	}

	transferID := o.recordTransfer(ctx, leg, wei, txRes.Hash, res.OrderID, entity.TransferResultPending)
	deadline := time.Now().Add(OrderTimeout)
	if deadline.After(legDeadline) {
		deadline = legDeadline
	}
	settlement := o.tracker.AwaitSettlement(ctx, orderID, leg.ToChain, deadline)
	res.Delivered = settlement.Delivered()
	switch settlement {
	case order.SettlementDelivered:
		o.updateTransfer(ctx, transferID, res.OrderID, entity.TransferResultDelivered)
	case order.SettlementRefunded:
		o.updateTransfer(ctx, transferID, res.OrderID, entity.TransferResultRefunded)
	default:
		o.updateTransfer(ctx, transferID, res.OrderID, entity.TransferResultFailed)
	}
	observeLegSettled(leg.FromChain, leg.ToChain, settlement.String(), submittedAt)
	return res, nil
}

// gasPrice prefers the API's estimate when it carries one, falling back to
// the node. The configured multiplier applies either way.
func (o *Orchestrator) gasPrice(ctx context.Context, chainName string, estimate *bridgeapi.Estimate) (*big.Int, error) {
	var price *big.Int
	if estimate != nil && estimate.GasPrice != "" {
		if v, err := strconv.ParseInt(estimate.GasPrice, 10, 64); err == nil && v > 0 {
			price = big.NewInt(v)
		}
	}
	if price == nil {
		var err error
		price, err = o.submitter.GasPrice(ctx, chainName)
		if err != nil {
			return nil, err
		}
	}
	if o.bridgeCfg.GasMultiplier > 0 && o.bridgeCfg.GasMultiplier != 1 {
		scaled, _ := new(big.Float).Mul(
			new(big.Float).SetInt(price),
			big.NewFloat(o.bridgeCfg.GasMultiplier),
		).Int(nil)
		price = scaled
	}
	return price, nil
}

func (o *Orchestrator) recordTransfer(ctx context.Context, leg *config.LegConfig, wei *big.Int, txHash common.Hash, orderID *common.Hash, result entity.TransferResult) uint {
	if o.transfers == nil {
		return 0
	}
	transfer := &entity.Transfer{
		WalletAddress:    o.submitter.Address(),
		SourceChain:      leg.FromChain,
		DestinationChain: leg.ToChain,
		AmountWei:        wei.String(),
		TransactionHash:  txHash,
		OrderID:          orderID,
		Result:           result,
	}
	if err := o.transfers.Create(ctx, transfer); err != nil {
		o.logger.WithError(err).Error("Can't record transfer")
		return 0
	}
	return transfer.ID
}

func (o *Orchestrator) updateTransfer(ctx context.Context, id uint, orderID *common.Hash, result entity.TransferResult) {
	if o.transfers == nil || id == 0 {
		return
	}
	if err := o.transfers.UpdateResult(ctx, id, orderID, result); err != nil {
		o.logger.WithError(err).Error("Can't update transfer result")
	}
}

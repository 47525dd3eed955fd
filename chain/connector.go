package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"

	"github.com/t3rntools/bridge-cycler/config"
	"github.com/t3rntools/bridge-cycler/ethclient"
	"github.com/t3rntools/bridge-cycler/utils"
)

const (
	ReceiptWaitTimeout  = 2 * time.Minute
	ReceiptPollInterval = 2 * time.Second

	// Extra headroom on top of the node's gas estimate.
	GasEstimateBuffer = 1.1
)

var (
	ErrUnknownChain      = errors.New("chain is not configured")
	ErrInsufficientFunds = errors.New("wallet balance is too low for the transfer")
)

type TxRequest struct {
	ChainName string
	To        common.Address
	Value     *big.Int
	GasPrice  *big.Int
	Gas       uint64
	Data      []byte
}

type TxResult struct {
	Hash common.Hash
	// Receipt is nil when the transaction was submitted but did not get
	// mined within ReceiptWaitTimeout.
	Receipt  *types.Receipt
	Reverted bool
	// RevertReason holds the node's error for a reverted transaction,
	// when one could be recovered.
	RevertReason string
}

type dialFunc func(url string, timeout time.Duration, chainID uint64, proxyURL string) (ethclient.Client, error)

// Connector holds the wallet key and per-chain RPC connections for a single
// wallet run. Connections are dialed lazily and must not be shared between
// wallet runs.
type Connector struct {
	chains   map[string]*config.ChainConfig
	logger   logrus.FieldLogger
	key      *ecdsa.PrivateKey
	address  common.Address
	proxyURL string
	retries  utils.RetryPolicy

	dial    dialFunc
	mu      sync.Mutex
	clients map[string]ethclient.Client
}

func NewConnector(
	chains map[string]*config.ChainConfig,
	logger logrus.FieldLogger,
	key *ecdsa.PrivateKey,
	proxyURL string,
	retries utils.RetryPolicy,
) *Connector {
	return &Connector{
		chains:   chains,
		logger:   logger,
		key:      key,
		address:  crypto.PubkeyToAddress(key.PublicKey),
		proxyURL: proxyURL,
		retries:  retries,
		dial:     ethclient.NewClient,
		clients:  map[string]ethclient.Client{},
	}
}

func (c *Connector) Address() common.Address {
	return c.address
}

// Connection returns the RPC client for a configured chain, dialing it on
// first use.
func (c *Connector) Connection(chainName string) (ethclient.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if client, ok := c.clients[chainName]; ok {
		return client, nil
	}
	cfg, ok := c.chains[chainName]
	if !ok {
		return nil, fmt.Errorf("%q: %w", chainName, ErrUnknownChain)
	}
	client, err := c.dial(cfg.RPC.Host, cfg.RPC.Timeout, cfg.ChainID, c.proxyURL)
	if err != nil {
		return nil, fmt.Errorf("can't connect to %s: %w", chainName, err)
	}
	c.clients[chainName] = client
	return client, nil
}

func (c *Connector) GasPrice(ctx context.Context, chainName string) (*big.Int, error) {
	client, err := c.Connection(chainName)
	if err != nil {
		return nil, err
	}
	var price *big.Int
	err = c.retries.Retry(ctx, c.logger, "gas price request", func(ctx context.Context) error {
		price, err = client.SuggestGasPrice(ctx)
		return err
	})
	return price, err
}

func (c *Connector) Nonce(ctx context.Context, chainName string) (uint64, error) {
	client, err := c.Connection(chainName)
	if err != nil {
		return 0, err
	}
	var nonce uint64
	err = c.retries.Retry(ctx, c.logger, "nonce request", func(ctx context.Context) error {
		nonce, err = client.PendingNonceAt(ctx, c.address)
		return err
	})
	return nonce, err
}

func (c *Connector) Balance(ctx context.Context, chainName string) (*big.Int, error) {
	client, err := c.Connection(chainName)
	if err != nil {
		return nil, err
	}
	var balance *big.Int
	err = c.retries.Retry(ctx, c.logger, "balance request", func(ctx context.Context) error {
		balance, err = client.BalanceAt(ctx, c.address)
		return err
	})
	return balance, err
}

// EstimateGas asks the node for a gas estimate and adds a buffer on top.
// Estimation failures are returned to the caller: they usually mean the
// transaction would revert.
func (c *Connector) EstimateGas(ctx context.Context, req *TxRequest) (uint64, error) {
	client, err := c.Connection(req.ChainName)
	if err != nil {
		return 0, err
	}
	msg := ethereum.CallMsg{
		From:  c.address,
		To:    &req.To,
		Value: req.Value,
		Data:  req.Data,
	}
	var gas uint64
	err = c.retries.Retry(ctx, c.logger, "gas estimation", func(ctx context.Context) error {
		gas, err = client.EstimateGas(ctx, msg)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("can't estimate gas: %w", err)
	}
	return uint64(float64(gas) * GasEstimateBuffer), nil
}

// SendTransaction signs and submits a legacy transaction, then waits for its
// receipt. The wallet balance is checked against value plus the full gas fee
// before anything is sent.
func (c *Connector) SendTransaction(ctx context.Context, req *TxRequest) (*TxResult, error) {
	client, err := c.Connection(req.ChainName)
	if err != nil {
		return nil, err
	}

	balance, err := c.Balance(ctx, req.ChainName)
	if err != nil {
		return nil, fmt.Errorf("can't check balance: %w", err)
	}
	fee := new(big.Int).Mul(req.GasPrice, new(big.Int).SetUint64(req.Gas))
	required := new(big.Int).Add(req.Value, fee)
	if balance.Cmp(required) < 0 {
		return nil, fmt.Errorf("have %s wei, need %s wei: %w", balance, required, ErrInsufficientFunds)
	}

	nonce, err := c.Nonce(ctx, req.ChainName)
	if err != nil {
		return nil, fmt.Errorf("can't get nonce: %w", err)
	}
	tx := types.NewTransaction(nonce, req.To, req.Value, req.Gas, req.GasPrice, req.Data)
	signed, err := types.SignTx(tx, types.NewEIP155Signer(client.ChainID()), c.key)
	if err != nil {
		return nil, fmt.Errorf("can't sign transaction: %w", err)
	}
	err = c.retries.Retry(ctx, c.logger, "transaction submission", func(ctx context.Context) error {
		return client.SendTransaction(ctx, signed)
	})
	if err != nil {
		return nil, fmt.Errorf("can't send transaction: %w", err)
	}

	res := &TxResult{Hash: signed.Hash()}
	receipt := c.waitForReceipt(ctx, client, res.Hash)
	if receipt == nil {
		c.logger.WithField("tx_hash", res.Hash).Warn("Transaction was not mined in time, continuing with its hash")
		return res, nil
	}
	res.Receipt = receipt
	if receipt.Status == types.ReceiptStatusFailed {
		res.Reverted = true
		res.RevertReason = c.revertReason(ctx, client, signed, receipt)
	}
	return res, nil
}

func (c *Connector) waitForReceipt(ctx context.Context, client ethclient.Client, txHash common.Hash) *types.Receipt {
	deadline := time.Now().Add(ReceiptWaitTimeout)
	for time.Now().Before(deadline) {
		receipt, err := client.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			return receipt
		}
		if utils.ContextSleep(ctx, ReceiptPollInterval) == nil {
			return nil
		}
	}
	return nil
}

// revertReason re-executes the failed transaction as a call at its block to
// recover the node's revert error. Best effort only.
func (c *Connector) revertReason(ctx context.Context, client ethclient.Client, tx *types.Transaction, receipt *types.Receipt) string {
	msg := ethereum.CallMsg{
		From:     c.address,
		To:       tx.To(),
		Gas:      tx.Gas(),
		GasPrice: tx.GasPrice(),
		Value:    tx.Value(),
		Data:     tx.Data(),
	}
	_, err := client.CallContract(ctx, msg, receipt.BlockNumber)
	if err == nil {
		return ""
	}
	return err.Error()
}

// Receipt fetches a transaction receipt, returning nil when the receipt is
// unavailable for any reason.
func (c *Connector) Receipt(ctx context.Context, chainName string, txHash common.Hash) *types.Receipt {
	client, err := c.Connection(chainName)
	if err != nil {
		return nil
	}
	receipt, err := client.TransactionReceipt(ctx, txHash)
	if err != nil {
		return nil
	}
	return receipt
}

// VerifyTransaction reports whether a transaction is mined and succeeded.
func (c *Connector) VerifyTransaction(ctx context.Context, chainName string, txHash common.Hash) bool {
	receipt := c.Receipt(ctx, chainName, txHash)
	return receipt != nil && receipt.Status == types.ReceiptStatusSuccessful
}

// Close tears down all dialed connections.
func (c *Connector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, client := range c.clients {
		client.Close()
		delete(c.clients, name)
	}
}

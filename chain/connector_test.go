package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/t3rntools/bridge-cycler/config"
	"github.com/t3rntools/bridge-cycler/ethclient"
	"github.com/t3rntools/bridge-cycler/logging"
	"github.com/t3rntools/bridge-cycler/utils"
)

type fakeClient struct {
	chainID     *big.Int
	balance     *big.Int
	nonce       uint64
	gasPrice    *big.Int
	gas         uint64
	gasFailures int
	receipt     *types.Receipt
	callErr     error

	sent []*types.Transaction
}

func (f *fakeClient) ChainID() *big.Int { return f.chainID }

func (f *fakeClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return f.gasPrice, nil
}

func (f *fakeClient) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return f.nonce, nil
}

func (f *fakeClient) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	return f.balance, nil
}

func (f *fakeClient) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	if f.gasFailures > 0 {
		f.gasFailures--
		return 0, errors.New("the node is busy")
	}
	return f.gas, nil
}

func (f *fakeClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	f.sent = append(f.sent, tx)
	return nil
}

func (f *fakeClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return f.receipt, nil
}

func (f *fakeClient) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return nil, f.callErr
}

func (f *fakeClient) Close() {}

func testConnector(t *testing.T, client ethclient.Client) *Connector {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	chains := map[string]*config.ChainConfig{
		"base_sepolia": {
			RPC:     &config.RPCConfig{Host: "https://sepolia.base.org", Timeout: time.Second},
			ChainID: 84532,
		},
	}
	conn := NewConnector(chains, logging.New(), key, "", utils.RetryPolicy{MaxAttempts: 1})
	conn.dial = func(url string, timeout time.Duration, chainID uint64, proxyURL string) (ethclient.Client, error) {
		return client, nil
	}
	return conn
}

func TestConnectorUnknownChain(t *testing.T) {
	t.Parallel()

	conn := testConnector(t, &fakeClient{})
	_, err := conn.Connection("arbitrum_sepolia")
	require.ErrorIs(t, err, ErrUnknownChain)
}

func TestConnectorEstimateGasBuffer(t *testing.T) {
	t.Parallel()

	client := &fakeClient{chainID: big.NewInt(84532), gas: 100000}
	conn := testConnector(t, client)

	gas, err := conn.EstimateGas(context.Background(), &TxRequest{
		ChainName: "base_sepolia",
		To:        common.HexToAddress("0xCEE0372632a37Ba4d0499D1E2116eCff3A17d3C3"),
		Value:     big.NewInt(1),
	})
	require.NoError(t, err)
	require.Equal(t, uint64(110000), gas)
}

func TestConnectorEstimateGasRetriesTransientErrors(t *testing.T) {
	t.Parallel()

	client := &fakeClient{chainID: big.NewInt(84532), gas: 100000, gasFailures: 1}
	conn := testConnector(t, client)
	conn.retries = utils.RetryPolicy{MaxAttempts: 3, BackoffFactor: 1, InitialWait: time.Millisecond}

	gas, err := conn.EstimateGas(context.Background(), &TxRequest{
		ChainName: "base_sepolia",
		To:        common.HexToAddress("0xCEE0372632a37Ba4d0499D1E2116eCff3A17d3C3"),
		Value:     big.NewInt(1),
	})
	require.NoError(t, err)
	require.Equal(t, uint64(110000), gas)
}

func TestConnectorInsufficientFunds(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		chainID: big.NewInt(84532),
		balance: big.NewInt(1000),
	}
	conn := testConnector(t, client)

	_, err := conn.SendTransaction(context.Background(), &TxRequest{
		ChainName: "base_sepolia",
		To:        common.HexToAddress("0xCEE0372632a37Ba4d0499D1E2116eCff3A17d3C3"),
		Value:     big.NewInt(900),
		GasPrice:  big.NewInt(10),
		Gas:       21000,
	})
	require.ErrorIs(t, err, ErrInsufficientFunds)
	require.Empty(t, client.sent, "nothing must be submitted with a short balance")
}

func TestConnectorSendTransaction(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		chainID: big.NewInt(84532),
		balance: big.NewInt(1e18),
		nonce:   7,
		receipt: &types.Receipt{
			Status:      types.ReceiptStatusSuccessful,
			BlockNumber: big.NewInt(100),
		},
	}
	conn := testConnector(t, client)

	res, err := conn.SendTransaction(context.Background(), &TxRequest{
		ChainName: "base_sepolia",
		To:        common.HexToAddress("0xCEE0372632a37Ba4d0499D1E2116eCff3A17d3C3"),
		Value:     big.NewInt(1e15),
		GasPrice:  big.NewInt(10),
		Gas:       21000,
	})
	require.NoError(t, err)
	require.Len(t, client.sent, 1)
	require.Equal(t, uint64(7), client.sent[0].Nonce())
	require.Equal(t, client.sent[0].Hash(), res.Hash)
	require.False(t, res.Reverted)
	require.NotNil(t, res.Receipt)
}

func TestConnectorSendTransactionReverted(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		chainID: big.NewInt(84532),
		balance: big.NewInt(1e18),
		receipt: &types.Receipt{
			Status:      types.ReceiptStatusFailed,
			BlockNumber: big.NewInt(100),
		},
		callErr: errors.New("execution reverted: order already exists"),
	}
	conn := testConnector(t, client)

	res, err := conn.SendTransaction(context.Background(), &TxRequest{
		ChainName: "base_sepolia",
		To:        common.HexToAddress("0xCEE0372632a37Ba4d0499D1E2116eCff3A17d3C3"),
		Value:     big.NewInt(1e15),
		GasPrice:  big.NewInt(10),
		Gas:       21000,
	})
	require.NoError(t, err)
	require.True(t, res.Reverted)
	require.Contains(t, res.RevertReason, "order already exists")
}

func TestConnectorVerifyTransaction(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		chainID: big.NewInt(84532),
		receipt: &types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(1)},
	}
	conn := testConnector(t, client)
	require.True(t, conn.VerifyTransaction(context.Background(), "base_sepolia", common.Hash{1}))

	client.receipt = &types.Receipt{Status: types.ReceiptStatusFailed, BlockNumber: big.NewInt(1)}
	require.False(t, conn.VerifyTransaction(context.Background(), "base_sepolia", common.Hash{1}))
}

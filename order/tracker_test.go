package order_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/t3rntools/bridge-cycler/bridgeapi"
	"github.com/t3rntools/bridge-cycler/logging"
	"github.com/t3rntools/bridge-cycler/order"
)

type apiStep struct {
	order *bridgeapi.Order
	err   error
}

type fakeAPI struct {
	steps []apiStep
	calls int
}

// GetOrder replays the scripted steps, repeating the last one forever.
func (f *fakeAPI) GetOrder(ctx context.Context, orderID string) (*bridgeapi.Order, error) {
	step := f.steps[len(f.steps)-1]
	if f.calls < len(f.steps) {
		step = f.steps[f.calls]
	}
	f.calls++
	return step.order, step.err
}

type fakeVerifier struct {
	executed map[common.Hash]bool
	calls    int
	lastTx   common.Hash
}

func (f *fakeVerifier) VerifyTransaction(ctx context.Context, chainName string, txHash common.Hash) bool {
	f.calls++
	f.lastTx = txHash
	return f.executed[txHash]
}

func testTracker(api order.StatusAPI, verifier order.TxVerifier) *order.Tracker {
	tracker := order.NewTracker(api, verifier, logging.New())
	tracker.PollInterval = time.Millisecond
	return tracker
}

var testOrderID = common.HexToHash("0xaa")

func TestAwaitSettlementSuccess(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{steps: []apiStep{
		{order: nil}, // not indexed yet
		{order: &bridgeapi.Order{Status: "Placed"}},
		{order: &bridgeapi.Order{Status: "Executed", ExecutionTxHash: "0xbb"}},
	}}
	tracker := testTracker(api, &fakeVerifier{})

	var transitions []order.Status
	tracker.OnTransition = func(id common.Hash, status order.Status, attempt int) {
		require.Equal(t, testOrderID, id)
		transitions = append(transitions, status)
	}

	res := tracker.AwaitSettlement(context.Background(), testOrderID, "optimism_sepolia", time.Now().Add(time.Minute))
	require.Equal(t, order.SettlementDelivered, res)
	require.True(t, res.Delivered())
	// the implicit Placed and the explicit Placed collapse into one transition
	require.Equal(t, []order.Status{order.StatusPlaced, order.StatusExecuted}, transitions)
}

func TestAwaitSettlementFailed(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{steps: []apiStep{
		{order: &bridgeapi.Order{Status: "Failed"}},
	}}
	tracker := testTracker(api, &fakeVerifier{})

	res := tracker.AwaitSettlement(context.Background(), testOrderID, "optimism_sepolia", time.Now().Add(time.Minute))
	require.Equal(t, order.SettlementFailed, res)
	require.Equal(t, 1, api.calls)
}

func TestAwaitSettlementConsecutiveErrors(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{steps: []apiStep{
		{err: errors.New("api down")},
	}}
	tracker := testTracker(api, &fakeVerifier{})

	res := tracker.AwaitSettlement(context.Background(), testOrderID, "optimism_sepolia", time.Now().Add(time.Minute))
	require.Equal(t, order.SettlementFailed, res)
	require.Equal(t, order.DefaultMaxConsecutiveErrors, api.calls)
}

func TestAwaitSettlementErrorsReset(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{steps: []apiStep{
		{err: errors.New("api down")},
		{err: errors.New("api down")},
		{order: &bridgeapi.Order{Status: "Placed"}},
		{err: errors.New("api down")},
		{err: errors.New("api down")},
		{order: &bridgeapi.Order{Status: "Claimed"}},
	}}
	tracker := testTracker(api, &fakeVerifier{})

	res := tracker.AwaitSettlement(context.Background(), testOrderID, "optimism_sepolia", time.Now().Add(time.Minute))
	require.Equal(t, order.SettlementDelivered, res)
	require.Equal(t, 6, api.calls)
}

func TestAwaitSettlementExpiredButExecuted(t *testing.T) {
	t.Parallel()

	execTx := common.HexToHash("0xbb")
	api := &fakeAPI{steps: []apiStep{
		{order: &bridgeapi.Order{Status: "Expired", ExecutionTxHash: execTx.Hex()}},
	}}
	verifier := &fakeVerifier{executed: map[common.Hash]bool{execTx: true}}
	tracker := testTracker(api, verifier)

	res := tracker.AwaitSettlement(context.Background(), testOrderID, "optimism_sepolia", time.Now().Add(time.Minute))
	require.Equal(t, order.SettlementDelivered, res)
	require.Equal(t, 1, verifier.calls)
}

func TestAwaitSettlementUnknownStatusReconciles(t *testing.T) {
	t.Parallel()

	execTx := common.HexToHash("0xbb")
	api := &fakeAPI{steps: []apiStep{
		{order: &bridgeapi.Order{Status: "SomethingNew", ExecutionTxHash: execTx.Hex()}},
	}}
	verifier := &fakeVerifier{executed: map[common.Hash]bool{execTx: true}}
	tracker := testTracker(api, verifier)
	tracker.UnknownStatusGrace = 5 * time.Millisecond

	res := tracker.AwaitSettlement(context.Background(), testOrderID, "optimism_sepolia", time.Now().Add(time.Minute))
	require.Equal(t, order.SettlementDelivered, res)
}

func TestAwaitSettlementUnknownStatusPrefersConfirmationTx(t *testing.T) {
	t.Parallel()

	confTx := common.HexToHash("0xdd")
	api := &fakeAPI{steps: []apiStep{
		{order: &bridgeapi.Order{
			Status:             "SomethingNew",
			ConfirmationTxHash: confTx.Hex(),
			ExecutionTxHash:    common.HexToHash("0xbb").Hex(),
		}},
	}}
	verifier := &fakeVerifier{executed: map[common.Hash]bool{confTx: true}}
	tracker := testTracker(api, verifier)
	tracker.UnknownStatusGrace = 5 * time.Millisecond

	res := tracker.AwaitSettlement(context.Background(), testOrderID, "optimism_sepolia", time.Now().Add(time.Minute))
	require.Equal(t, order.SettlementDelivered, res)
	require.Equal(t, confTx, verifier.lastTx)
}

func TestAwaitSettlementUnknownStatusKeepsPolling(t *testing.T) {
	t.Parallel()

	// An unconfirmable unknown status must not end tracking: the grace
	// window restarts and a later terminal status is still picked up.
	api := &fakeAPI{steps: []apiStep{
		{order: &bridgeapi.Order{Status: "SomethingNew"}},
		{order: &bridgeapi.Order{Status: "SomethingNew"}},
		{order: &bridgeapi.Order{Status: "SomethingNew"}},
		{order: &bridgeapi.Order{Status: "SomethingNew"}},
		{order: &bridgeapi.Order{Status: "Executed", ExecutionTxHash: "0xbb"}},
	}}
	tracker := testTracker(api, &fakeVerifier{})
	tracker.UnknownStatusGrace = 2 * time.Millisecond

	res := tracker.AwaitSettlement(context.Background(), testOrderID, "optimism_sepolia", time.Now().Add(time.Minute))
	require.Equal(t, order.SettlementDelivered, res)
	require.Equal(t, 5, api.calls)
}

func TestAwaitSettlementProbesDestinationChain(t *testing.T) {
	t.Parallel()

	execTx := common.HexToHash("0xbb")
	api := &fakeAPI{steps: []apiStep{
		{order: &bridgeapi.Order{Status: "Placed", ExecutionTxHash: execTx.Hex()}},
	}}
	verifier := &fakeVerifier{executed: map[common.Hash]bool{execTx: true}}
	tracker := testTracker(api, verifier)

	res := tracker.AwaitSettlement(context.Background(), testOrderID, "optimism_sepolia", time.Now().Add(time.Minute))
	require.Equal(t, order.SettlementDelivered, res)
	// first probe fires on the 8th attempt
	require.Equal(t, 8, api.calls)
}

func TestAwaitSettlementAttemptsExhaustedRefund(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{steps: []apiStep{
		{order: &bridgeapi.Order{Status: "Pending Refund"}},
	}}
	tracker := testTracker(api, &fakeVerifier{})
	tracker.MaxAttempts = 3

	res := tracker.AwaitSettlement(context.Background(), testOrderID, "optimism_sepolia", time.Now().Add(time.Minute))
	require.Equal(t, order.SettlementRefunded, res)
	require.False(t, res.Delivered())
	require.Equal(t, 3, api.calls)
}

func TestAwaitSettlementDeadline(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{steps: []apiStep{
		{order: &bridgeapi.Order{Status: "Placed"}},
	}}
	tracker := testTracker(api, &fakeVerifier{})

	res := tracker.AwaitSettlement(context.Background(), testOrderID, "optimism_sepolia", time.Now().Add(-time.Second))
	require.Equal(t, order.SettlementFailed, res)
	require.Equal(t, 0, api.calls)
}

func TestAwaitSettlementCancel(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{steps: []apiStep{
		{order: &bridgeapi.Order{Status: "Placed"}},
	}}
	tracker := testTracker(api, &fakeVerifier{})
	tracker.PollInterval = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	st := time.Now()
	res := tracker.AwaitSettlement(ctx, testOrderID, "optimism_sepolia", time.Now().Add(time.Minute))
	require.Equal(t, order.SettlementFailed, res)
	require.Less(t, time.Since(st), time.Second)
}

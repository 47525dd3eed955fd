package bridgeapi

import (
	"fmt"
	"math/big"
)

// Order is the API's view of a submitted bridge order.
type Order struct {
	Status             string `json:"status"`
	ConfirmationTxHash string `json:"confirmationTxHash"`
	ExecutionTxHash    string `json:"executionTxHash"`
}

type EstimateRequest struct {
	FromAsset               string  `json:"fromAsset"`
	ToAsset                 string  `json:"toAsset"`
	FromChain               string  `json:"fromChain"`
	ToChain                 string  `json:"toChain"`
	AmountWei               string  `json:"amountWei"`
	ExecutorTipUSD          float64 `json:"executorTipUSD"`
	OverpayOptionPercentage float64 `json:"overpayOptionPercentage"`
	SpreadOptionPercentage  float64 `json:"spreadOptionPercentage"`
}

type Estimate struct {
	EstimatedReceivedAmountWei *HexAmount `json:"estimatedReceivedAmountWei"`
	MaxReward                  *HexAmount `json:"maxReward"`
	GasPrice                   string     `json:"gasPrice"`
}

// HexAmount is a wei amount the API serializes as {"hex": "0x..."}.
type HexAmount struct {
	Hex string `json:"hex"`
}

func (a *HexAmount) BigInt() (*big.Int, error) {
	if a == nil || a.Hex == "" {
		return nil, fmt.Errorf("empty hex amount")
	}
	n, ok := new(big.Int).SetString(a.Hex, 0)
	if !ok {
		return nil, fmt.Errorf("can't parse hex amount %q", a.Hex)
	}
	return n, nil
}

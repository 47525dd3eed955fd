package presenter

import (
	"time"

	"github.com/t3rntools/bridge-cycler/entity"
)

type TransferResult struct {
	ID               uint      `json:"id"`
	WalletAddress    string    `json:"walletAddress"`
	SourceChain      string    `json:"sourceChain"`
	DestinationChain string    `json:"destinationChain"`
	AmountWei        string    `json:"amountWei"`
	TransactionHash  string    `json:"transactionHash"`
	OrderID          *string   `json:"orderId,omitempty"`
	Result           string    `json:"result"`
	CreatedAt        time.Time `json:"createdAt"`
}

type OrderEventResult struct {
	Status    string    `json:"status"`
	Attempt   int       `json:"attempt"`
	CreatedAt time.Time `json:"createdAt"`
}

func newTransferResult(t *entity.Transfer) *TransferResult {
	res := &TransferResult{
		ID:               t.ID,
		WalletAddress:    t.WalletAddress.Hex(),
		SourceChain:      t.SourceChain,
		DestinationChain: t.DestinationChain,
		AmountWei:        t.AmountWei,
		TransactionHash:  t.TransactionHash.Hex(),
		Result:           string(t.Result),
	}
	if t.OrderID != nil {
		orderID := t.OrderID.Hex()
		res.OrderID = &orderID
	}
	if t.CreatedAt != nil {
		res.CreatedAt = *t.CreatedAt
	}
	return res
}

func newOrderEventResult(e *entity.OrderEvent) *OrderEventResult {
	res := &OrderEventResult{
		Status:  e.Status,
		Attempt: e.Attempt,
	}
	if e.CreatedAt != nil {
		res.CreatedAt = *e.CreatedAt
	}
	return res
}

package entity

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type TransferResult string

const (
	TransferResultPending   TransferResult = "pending"
	TransferResultDelivered TransferResult = "delivered"
	TransferResultRefunded  TransferResult = "refunded"
	TransferResultFailed    TransferResult = "failed"
)

type Transfer struct {
	ID               uint           `db:"id"`
	WalletAddress    common.Address `db:"wallet_address"`
	SourceChain      string         `db:"source_chain"`
	DestinationChain string         `db:"destination_chain"`
	AmountWei        string         `db:"amount_wei"`
	TransactionHash  common.Hash    `db:"transaction_hash"`
	OrderID          *common.Hash   `db:"order_id"`
	Result           TransferResult `db:"result"`
	CreatedAt        *time.Time     `db:"created_at"`
	UpdatedAt        *time.Time     `db:"updated_at"`
}

type TransfersRepo interface {
	Create(ctx context.Context, transfer *Transfer) error
	UpdateResult(ctx context.Context, id uint, orderID *common.Hash, result TransferResult) error
	FindRecent(ctx context.Context, limit uint64) ([]*Transfer, error)
	FindByWallet(ctx context.Context, wallet common.Address, limit uint64) ([]*Transfer, error)
}

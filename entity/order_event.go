package entity

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// OrderEvent records one observed status transition of a bridge order.
type OrderEvent struct {
	ID        uint        `db:"id"`
	OrderID   common.Hash `db:"order_id"`
	Status    string      `db:"status"`
	Attempt   int         `db:"attempt"`
	CreatedAt *time.Time  `db:"created_at"`
}

type OrderEventsRepo interface {
	Create(ctx context.Context, event *OrderEvent) error
	FindByOrderID(ctx context.Context, orderID common.Hash) ([]*OrderEvent, error)
}

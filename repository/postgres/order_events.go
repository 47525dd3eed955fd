package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/ethereum/go-ethereum/common"

	"github.com/t3rntools/bridge-cycler/db"
	"github.com/t3rntools/bridge-cycler/entity"
)

type orderEventsRepo basePostgresRepo

func NewOrderEventsRepo(table string, db *db.DB) entity.OrderEventsRepo {
	return (*orderEventsRepo)(newBasePostgresRepo(table, db))
}

func (r *orderEventsRepo) Create(ctx context.Context, event *entity.OrderEvent) error {
	q, args, err := sq.Insert(r.table).
		Columns("order_id", "status", "attempt").
		Values(event.OrderID, event.Status, event.Attempt).
		Suffix("RETURNING id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	err = r.db.GetContext(ctx, &event.ID, q, args...)
	if err != nil {
		return fmt.Errorf("can't insert order event: %w", err)
	}
	return nil
}

func (r *orderEventsRepo) FindByOrderID(ctx context.Context, orderID common.Hash) ([]*entity.OrderEvent, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		Where(sq.Eq{"order_id": orderID}).
		OrderBy("id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	events := make([]*entity.OrderEvent, 0, 10)
	err = r.db.SelectContext(ctx, &events, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't get order events: %w", err)
	}
	return events, nil
}

package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/ethereum/go-ethereum/common"

	"github.com/t3rntools/bridge-cycler/db"
	"github.com/t3rntools/bridge-cycler/entity"
)

type transfersRepo basePostgresRepo

func NewTransfersRepo(table string, db *db.DB) entity.TransfersRepo {
	return (*transfersRepo)(newBasePostgresRepo(table, db))
}

func (r *transfersRepo) Create(ctx context.Context, transfer *entity.Transfer) error {
	q, args, err := sq.Insert(r.table).
		Columns("wallet_address", "source_chain", "destination_chain", "amount_wei", "transaction_hash", "order_id", "result").
		Values(transfer.WalletAddress, transfer.SourceChain, transfer.DestinationChain, transfer.AmountWei, transfer.TransactionHash, transfer.OrderID, transfer.Result).
		Suffix("RETURNING id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	err = r.db.GetContext(ctx, &transfer.ID, q, args...)
	if err != nil {
		return fmt.Errorf("can't insert transfer: %w", err)
	}
	return nil
}

func (r *transfersRepo) UpdateResult(ctx context.Context, id uint, orderID *common.Hash, result entity.TransferResult) error {
	q, args, err := sq.Update(r.table).
		Set("order_id", orderID).
		Set("result", result).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't update transfer result: %w", err)
	}
	return nil
}

func (r *transfersRepo) FindRecent(ctx context.Context, limit uint64) ([]*entity.Transfer, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		OrderBy("id DESC").
		Limit(limit).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	transfers := make([]*entity.Transfer, 0, limit)
	err = r.db.SelectContext(ctx, &transfers, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't get recent transfers: %w", err)
	}
	return transfers, nil
}

func (r *transfersRepo) FindByWallet(ctx context.Context, wallet common.Address, limit uint64) ([]*entity.Transfer, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		Where(sq.Eq{"wallet_address": wallet}).
		OrderBy("id DESC").
		Limit(limit).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	transfers := make([]*entity.Transfer, 0, limit)
	err = r.db.SelectContext(ctx, &transfers, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't get wallet transfers: %w", err)
	}
	return transfers, nil
}

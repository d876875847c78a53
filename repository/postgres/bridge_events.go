package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/omni/tokenbridge-core/db"
	"github.com/omni/tokenbridge-core/entity"
)

type bridgeEventsRepo basePostgresRepo

func NewBridgeEventsRepo(table string, db *db.DB) entity.BridgeEventsRepo {
	return (*bridgeEventsRepo)(newBasePostgresRepo(table, db))
}

func (r *bridgeEventsRepo) Append(ctx context.Context, e *entity.BridgeEvent) error {
	q, args, err := sq.Insert(r.table).
		Columns("bridge_id", "chain_id", "kind", "sender", "recipient", "source_chain_id", "dest_chain_id", "amount", "nonce").
		Values(e.BridgeID, e.ChainID, e.Kind, e.Sender, e.Recipient, e.SourceChainID, e.DestChainID, e.Amount, e.Nonce).
		Suffix("RETURNING id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	err = r.db.GetContext(ctx, &e.ID, q, args...)
	if err != nil {
		return fmt.Errorf("can't insert bridge event: %w", err)
	}
	return nil
}

func (r *bridgeEventsRepo) Find(ctx context.Context, bridgeID, chainID string, fromID uint, limit uint64) ([]*entity.BridgeEvent, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		Where(sq.Eq{"bridge_id": bridgeID, "chain_id": chainID}).
		Where(sq.GtOrEq{"id": fromID}).
		OrderBy("id").
		Limit(limit).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	events := make([]*entity.BridgeEvent, 0, limit)
	err = r.db.SelectContext(ctx, &events, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't get bridge events: %w", err)
	}
	return events, nil
}

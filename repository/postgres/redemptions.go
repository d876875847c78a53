package postgres

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/omni/tokenbridge-core/db"
	"github.com/omni/tokenbridge-core/entity"
)

type redemptionsRepo basePostgresRepo

func NewRedemptionsRepo(table string, db *db.DB) entity.RedemptionsRepo {
	return (*redemptionsRepo)(newBasePostgresRepo(table, db))
}

func (r *redemptionsRepo) Create(ctx context.Context, red *entity.Redemption) error {
	q, args, err := insertRedemptionQuery(r.table, red).ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't insert redemption: %w", err)
	}
	return redemptionCreated(res)
}

// insertRedemptionQuery leaves an already consumed nonce untouched.
func insertRedemptionQuery(table string, red *entity.Redemption) sq.InsertBuilder {
	return sq.Insert(table).
		Columns("bridge_id", "chain_id", "nonce", "msg_hash", "sender", "recipient", "amount").
		Values(red.BridgeID, red.ChainID, red.Nonce, red.MsgHash, red.Sender, red.Recipient, red.Amount).
		Suffix("ON CONFLICT (bridge_id, chain_id, nonce) DO NOTHING").
		PlaceholderFormat(sq.Dollar)
}

func redemptionCreated(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("can't get affected rows: %w", err)
	}
	if n == 0 {
		return entity.ErrRedemptionExists
	}
	return nil
}

func (r *redemptionsRepo) GetByNonce(ctx context.Context, bridgeID, chainID string, nonce *entity.Numeric) (*entity.Redemption, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		Where(sq.Eq{"bridge_id": bridgeID, "chain_id": chainID, "nonce": nonce}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	red := new(entity.Redemption)
	err = r.db.GetContext(ctx, red, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't get redemption by nonce: %w", err)
	}
	return red, nil
}

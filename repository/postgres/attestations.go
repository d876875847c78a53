package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/omni/tokenbridge-core/db"
	"github.com/omni/tokenbridge-core/entity"
)

type attestationsRepo basePostgresRepo

func NewAttestationsRepo(table string, db *db.DB) entity.AttestationsRepo {
	return (*attestationsRepo)(newBasePostgresRepo(table, db))
}

func (r *attestationsRepo) Ensure(ctx context.Context, a *entity.Attestation) error {
	q, args, err := sq.Insert(r.table).
		Columns("bridge_id", "msg_hash", "log_id", "sender", "recipient", "source_chain_id", "dest_chain_id", "amount", "nonce", "signer", "signature").
		Values(a.BridgeID, a.MsgHash, a.LogID, a.Sender, a.Recipient, a.SourceChainID, a.DestChainID, a.Amount, a.Nonce, a.Signer, a.Signature).
		Suffix("ON CONFLICT (bridge_id, msg_hash) DO UPDATE SET updated_at = NOW(), signer = EXCLUDED.signer, signature = EXCLUDED.signature").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't ensure attestation: %w", err)
	}
	return nil
}

func (r *attestationsRepo) FindByNonce(ctx context.Context, bridgeID, destChainID string, nonce *entity.Numeric) ([]*entity.Attestation, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		Where(sq.Eq{"bridge_id": bridgeID, "dest_chain_id": destChainID, "nonce": nonce}).
		OrderBy("created_at").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	res := make([]*entity.Attestation, 0, 1)
	err = r.db.SelectContext(ctx, &res, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't get attestations by nonce: %w", err)
	}
	return res, nil
}

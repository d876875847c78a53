package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/tokenbridge-core/db"
	"github.com/omni/tokenbridge-core/entity"
)

type authorizationsRepo basePostgresRepo

func NewAuthorizationsRepo(table string, db *db.DB) entity.AuthorizationsRepo {
	return (*authorizationsRepo)(newBasePostgresRepo(table, db))
}

func (r *authorizationsRepo) Ensure(ctx context.Context, auth *entity.Authorization) error {
	q, args, err := sq.Insert(r.table).
		Columns("bridge_id", "chain_id", "admin", "validator").
		Values(auth.BridgeID, auth.ChainID, auth.Admin, auth.Validator).
		Suffix("ON CONFLICT (bridge_id, chain_id) DO NOTHING").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't ensure authorization: %w", err)
	}
	return nil
}

func (r *authorizationsRepo) Get(ctx context.Context, bridgeID, chainID string) (*entity.Authorization, error) {
	return r.get(ctx, bridgeID, chainID, false)
}

func (r *authorizationsRepo) Lock(ctx context.Context, bridgeID, chainID string) (*entity.Authorization, error) {
	return r.get(ctx, bridgeID, chainID, true)
}

func (r *authorizationsRepo) get(ctx context.Context, bridgeID, chainID string, forUpdate bool) (*entity.Authorization, error) {
	q, args, err := selectAuthorizationQuery(r.table, bridgeID, chainID, forUpdate).ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	auth := new(entity.Authorization)
	err = r.db.GetContext(ctx, auth, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't get authorization: %w", err)
	}
	return auth, nil
}

// selectAuthorizationQuery with forUpdate holds the row lock until the
// surrounding transaction ends.
func selectAuthorizationQuery(table, bridgeID, chainID string, forUpdate bool) sq.SelectBuilder {
	builder := sq.Select("*").
		From(table).
		Where(sq.Eq{"bridge_id": bridgeID, "chain_id": chainID})
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}
	return builder.PlaceholderFormat(sq.Dollar)
}

func (r *authorizationsRepo) UpdateValidator(ctx context.Context, bridgeID, chainID string, validator common.Address) error {
	q, args, err := sq.Update(r.table).
		Set("validator", validator).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"bridge_id": bridgeID, "chain_id": chainID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't update validator: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("can't get affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("can't update validator: %w", db.ErrNotFound)
	}
	return nil
}

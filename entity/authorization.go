package entity

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type Authorization struct {
	BridgeID  string         `db:"bridge_id"`
	ChainID   string         `db:"chain_id"`
	Admin     common.Address `db:"admin"`
	Validator common.Address `db:"validator"`
	CreatedAt *time.Time     `db:"created_at"`
	UpdatedAt *time.Time     `db:"updated_at"`
}

type AuthorizationsRepo interface {
	// Ensure creates the row if it does not exist yet, an existing row is left untouched.
	Ensure(ctx context.Context, auth *Authorization) error
	Get(ctx context.Context, bridgeID, chainID string) (*Authorization, error)
	// Lock is Get that also holds the row until the surrounding transaction ends.
	Lock(ctx context.Context, bridgeID, chainID string) (*Authorization, error)
	UpdateValidator(ctx context.Context, bridgeID, chainID string, validator common.Address) error
}

type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

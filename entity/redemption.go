package entity

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var ErrRedemptionExists = errors.New("redemption already exists")

// Redemption marks a nonce as consumed on a destination bridge instance.
// Rows are created once and never updated or removed.
type Redemption struct {
	BridgeID  string         `db:"bridge_id"`
	ChainID   string         `db:"chain_id"`
	Nonce     *Numeric       `db:"nonce"`
	MsgHash   common.Hash    `db:"msg_hash"`
	Sender    common.Address `db:"sender"`
	Recipient common.Address `db:"recipient"`
	Amount    *Numeric       `db:"amount"`
	CreatedAt *time.Time     `db:"created_at"`
}

type RedemptionsRepo interface {
	// Create fails with ErrRedemptionExists when the nonce is already consumed.
	Create(ctx context.Context, r *Redemption) error
	GetByNonce(ctx context.Context, bridgeID, chainID string, nonce *Numeric) (*Redemption, error)
}

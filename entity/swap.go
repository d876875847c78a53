package entity

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// SwapRecord is the six-field tuple shared by the source chain, the validator
// and the destination chain.
type SwapRecord struct {
	Sender        common.Address
	Recipient     common.Address
	SourceChainID *big.Int
	DestChainID   *big.Int
	Amount        *big.Int
	Nonce         *big.Int
}

type EventKind string

const (
	EventSwapInitialized EventKind = "SwapInitialized"
	EventRedeemed        EventKind = "Redeemed"
)

// BridgeEvent is an append-only record of an observable bridge event.
type BridgeEvent struct {
	ID            uint           `db:"id"`
	BridgeID      string         `db:"bridge_id"`
	ChainID       string         `db:"chain_id"`
	Kind          EventKind      `db:"kind"`
	Sender        common.Address `db:"sender"`
	Recipient     common.Address `db:"recipient"`
	SourceChainID *Numeric       `db:"source_chain_id"`
	DestChainID   *Numeric       `db:"dest_chain_id"`
	Amount        *Numeric       `db:"amount"`
	Nonce         *Numeric       `db:"nonce"`
	CreatedAt     *time.Time     `db:"created_at"`
}

type BridgeEventsRepo interface {
	Append(ctx context.Context, event *BridgeEvent) error
	Find(ctx context.Context, bridgeID, chainID string, fromID uint, limit uint64) ([]*BridgeEvent, error)
}

func NewBridgeEvent(bridgeID, chainID string, kind EventKind, rec *SwapRecord) *BridgeEvent {
	return &BridgeEvent{
		BridgeID:      bridgeID,
		ChainID:       chainID,
		Kind:          kind,
		Sender:        rec.Sender,
		Recipient:     rec.Recipient,
		SourceChainID: NewNumeric(rec.SourceChainID),
		DestChainID:   NewNumeric(rec.DestChainID),
		Amount:        NewNumeric(rec.Amount),
		Nonce:         NewNumeric(rec.Nonce),
	}
}

func (e *BridgeEvent) Record() *SwapRecord {
	return &SwapRecord{
		Sender:        e.Sender,
		Recipient:     e.Recipient,
		SourceChainID: e.SourceChainID.Big(),
		DestChainID:   e.DestChainID.Big(),
		Amount:        e.Amount.Big(),
		Nonce:         e.Nonce.Big(),
	}
}

package entity

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Attestation is a validator signature over the canonical message of a swap
// observed on its source chain.
type Attestation struct {
	BridgeID      string         `db:"bridge_id"`
	MsgHash       common.Hash    `db:"msg_hash"`
	LogID         uint           `db:"log_id"`
	Sender        common.Address `db:"sender"`
	Recipient     common.Address `db:"recipient"`
	SourceChainID *Numeric       `db:"source_chain_id"`
	DestChainID   *Numeric       `db:"dest_chain_id"`
	Amount        *Numeric       `db:"amount"`
	Nonce         *Numeric       `db:"nonce"`
	Signer        common.Address `db:"signer"`
	Signature     []byte         `db:"signature"`
	CreatedAt     *time.Time     `db:"created_at"`
	UpdatedAt     *time.Time     `db:"updated_at"`
}

type AttestationsRepo interface {
	Ensure(ctx context.Context, a *Attestation) error
	FindByNonce(ctx context.Context, bridgeID, destChainID string, nonce *Numeric) ([]*Attestation, error)
}

func NewAttestation(bridgeID string, logID uint, rec *SwapRecord, msgHash common.Hash, signer common.Address, sig []byte) *Attestation {
	return &Attestation{
		BridgeID:      bridgeID,
		MsgHash:       msgHash,
		LogID:         logID,
		Sender:        rec.Sender,
		Recipient:     rec.Recipient,
		SourceChainID: NewNumeric(rec.SourceChainID),
		DestChainID:   NewNumeric(rec.DestChainID),
		Amount:        NewNumeric(rec.Amount),
		Nonce:         NewNumeric(rec.Nonce),
		Signer:        signer,
		Signature:     sig,
	}
}

func (a *Attestation) Record() *SwapRecord {
	return &SwapRecord{
		Sender:        a.Sender,
		Recipient:     a.Recipient,
		SourceChainID: a.SourceChainID.Big(),
		DestChainID:   a.DestChainID.Big(),
		Amount:        a.Amount.Big(),
		Nonce:         a.Nonce.Big(),
	}
}

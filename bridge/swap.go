package bridge

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/omni/tokenbridge-core/entity"
	"github.com/omni/tokenbridge-core/message"
)

// Swap debits amount from sender and records a SwapInitialized event towards
// the counterparty chain. Ledger errors are returned unchanged.
func (b *Bridge) Swap(ctx context.Context, sender, recipient common.Address, amount, nonce *big.Int) (*entity.SwapRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec := &entity.SwapRecord{
		Sender:        sender,
		Recipient:     recipient,
		SourceChainID: b.ChainID(),
		DestChainID:   b.CounterpartyChainID(),
		Amount:        amount,
		Nonce:         nonce,
	}
	event, err := b.swap(ctx, rec)
	b.observe(OperationSwap, err)
	logger := b.logger.WithFields(logrus.Fields{
		"sender":    sender,
		"recipient": recipient,
		"amount":    amount,
		"nonce":     nonce,
	})
	if err != nil {
		logger.WithError(err).Warn("swap failed")
		return nil, err
	}
	logger.WithField("event_id", event.ID).Info("swap initialized")
	b.notify(ctx, event)
	return rec, nil
}

func (b *Bridge) swap(ctx context.Context, rec *entity.SwapRecord) (*entity.BridgeEvent, error) {
	if rec.Amount != nil && rec.Amount.Sign() == 0 {
		return nil, ErrZeroAmount
	}
	// the record has to be signable on the other side
	if _, err := message.Canonicalize(rec); err != nil {
		return nil, fmt.Errorf("invalid swap: %w", err)
	}
	event := entity.NewBridgeEvent(b.cfg.BridgeID, b.chainID, entity.EventSwapInitialized, rec)
	err := b.repo.Transactor.RunInTx(ctx, func(ctx context.Context) error {
		// orders swaps with the other operations sharing the database
		if _, err := b.registry.lockedValidator(ctx); err != nil {
			return err
		}
		if err := b.repo.BridgeEvents.Append(ctx, event); err != nil {
			return fmt.Errorf("can't append swap event: %w", err)
		}
		// must stay the last step, the ledger is not rolled back
		return b.ledger.Debit(ctx, rec.Sender, rec.Amount)
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

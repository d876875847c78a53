package bridge

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/omni/tokenbridge-core/db"
	"github.com/omni/tokenbridge-core/entity"
	"github.com/omni/tokenbridge-core/message"
)

// Redeem credits caller with amount swapped by sender on the counterparty
// chain, given the validator signature over the canonical message in which
// caller is the recipient. A nonce can be redeemed once.
func (b *Bridge) Redeem(ctx context.Context, caller, sender common.Address, amount, nonce *big.Int, sig message.Signature) (*entity.SwapRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec := &entity.SwapRecord{
		Sender:        sender,
		Recipient:     caller,
		SourceChainID: b.CounterpartyChainID(),
		DestChainID:   b.ChainID(),
		Amount:        amount,
		Nonce:         nonce,
	}
	logger := b.logger.WithFields(logrus.Fields{
		"sender":    sender,
		"recipient": caller,
		"amount":    amount,
		"nonce":     nonce,
	})
	event, err := b.redeem(ctx, rec, sig)
	b.observe(OperationRedeem, err)
	if err != nil {
		logger.WithError(err).Warn("redeem failed")
		return nil, err
	}
	logger.WithField("event_id", event.ID).Info("swap redeemed")
	b.notify(ctx, event)
	return rec, nil
}

func (b *Bridge) redeem(ctx context.Context, rec *entity.SwapRecord, sig message.Signature) (*entity.BridgeEvent, error) {
	if rec.Amount != nil && rec.Amount.Sign() == 0 {
		return nil, ErrZeroAmount
	}
	hash, err := message.Hash(rec)
	if err != nil {
		b.logger.WithError(err).Debug("can't canonicalize redeem request")
		return nil, ErrInvalidSignature
	}
	event := entity.NewBridgeEvent(b.cfg.BridgeID, b.chainID, entity.EventRedeemed, rec)
	err = b.repo.Transactor.RunInTx(ctx, func(ctx context.Context) error {
		validator, err := b.registry.lockedValidator(ctx)
		if err != nil {
			return err
		}
		signer, err := message.RecoverSigner(hash, sig)
		if err != nil || signer != validator {
			return ErrInvalidSignature
		}
		if err = b.checkNotRedeemed(ctx, rec.Nonce); err != nil {
			return err
		}
		err = b.repo.Redemptions.Create(ctx, &entity.Redemption{
			BridgeID:  b.cfg.BridgeID,
			ChainID:   b.chainID,
			Nonce:     entity.NewNumeric(rec.Nonce),
			MsgHash:   hash,
			Sender:    rec.Sender,
			Recipient: rec.Recipient,
			Amount:    entity.NewNumeric(rec.Amount),
		})
		if errors.Is(err, entity.ErrRedemptionExists) {
			return ErrAlreadyRedeemed
		}
		if err != nil {
			return fmt.Errorf("can't mark nonce as redeemed: %w", err)
		}
		if err = b.repo.BridgeEvents.Append(ctx, event); err != nil {
			return fmt.Errorf("can't append redeem event: %w", err)
		}
		// must stay the last step, the ledger is not rolled back
		return b.ledger.Credit(ctx, rec.Recipient, rec.Amount)
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (b *Bridge) checkNotRedeemed(ctx context.Context, nonce *big.Int) error {
	redeemed, err := b.IsRedeemed(ctx, nonce)
	if err != nil {
		return err
	}
	if redeemed {
		return ErrAlreadyRedeemed
	}
	return nil
}

// IsRedeemed reports whether nonce is already consumed on this instance.
func (b *Bridge) IsRedeemed(ctx context.Context, nonce *big.Int) (bool, error) {
	_, err := b.repo.Redemptions.GetByNonce(ctx, b.cfg.BridgeID, b.chainID, entity.NewNumeric(nonce))
	if errors.Is(err, db.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("can't read redemption: %w", err)
	}
	return true, nil
}

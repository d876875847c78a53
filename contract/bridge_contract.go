package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/tokenbridge-core/contract/bridgeabi"
	"github.com/omni/tokenbridge-core/entity"
	"github.com/omni/tokenbridge-core/ethclient"
)

var (
	ErrUnexpectedEvent  = errors.New("unexpected event")
	ErrUnexpectedOutput = errors.New("unexpected contract output")
)

type BridgeContract struct {
	*Contract
}

func NewBridgeContract(client ethclient.Client, addr common.Address) *BridgeContract {
	return &BridgeContract{NewContract(client, addr, bridgeabi.BridgeABI)}
}

func (c *BridgeContract) Validator(ctx context.Context) (common.Address, error) {
	return c.callAddress(ctx, "validator")
}

func (c *BridgeContract) Admin(ctx context.Context) (common.Address, error) {
	return c.callAddress(ctx, "admin")
}

func (c *BridgeContract) IsRedeemed(ctx context.Context, nonce *big.Int) (bool, error) {
	res, err := c.Call(ctx, "redeemed", nonce)
	if err != nil {
		return false, fmt.Errorf("can't obtain redemption status: %w", err)
	}
	if len(res) != 1 {
		return false, ErrUnexpectedOutput
	}
	redeemed, ok := res[0].(bool)
	if !ok {
		return false, ErrUnexpectedOutput
	}
	return redeemed, nil
}

func (c *BridgeContract) callAddress(ctx context.Context, method string) (common.Address, error) {
	res, err := c.Call(ctx, method)
	if err != nil {
		return common.Address{}, fmt.Errorf("can't obtain %s address: %w", method, err)
	}
	if len(res) != 1 {
		return common.Address{}, ErrUnexpectedOutput
	}
	addr, ok := res[0].(common.Address)
	if !ok {
		return common.Address{}, ErrUnexpectedOutput
	}
	return addr, nil
}

// ParseSwapRecord decodes a SwapInitialized or Redeemed log into its swap record.
func (c *BridgeContract) ParseSwapRecord(log *entity.Log) (string, *entity.SwapRecord, error) {
	event, data, err := c.ParseLog(log)
	if err != nil {
		return "", nil, err
	}
	if event != bridgeabi.SwapInitialized && event != bridgeabi.Redeemed {
		return "", nil, fmt.Errorf("got %q: %w", event, ErrUnexpectedEvent)
	}
	rec := new(entity.SwapRecord)
	var ok [6]bool
	rec.Sender, ok[0] = data["sender"].(common.Address)
	rec.Recipient, ok[1] = data["recipient"].(common.Address)
	rec.SourceChainID, ok[2] = data["sourceChainId"].(*big.Int)
	rec.DestChainID, ok[3] = data["destChainId"].(*big.Int)
	rec.Amount, ok[4] = data["amount"].(*big.Int)
	rec.Nonce, ok[5] = data["nonce"].(*big.Int)
	for _, b := range ok {
		if !b {
			return "", nil, fmt.Errorf("can't decode %s fields: %w", event, ErrUnexpectedEvent)
		}
	}
	return event, rec, nil
}

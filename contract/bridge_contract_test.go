package contract_test

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/omni/tokenbridge-core/contract"
	"github.com/omni/tokenbridge-core/contract/bridgeabi"
	"github.com/omni/tokenbridge-core/entity"
)

var (
	bridgeAddr = common.HexToAddress("0x4aa42145Aa6Ebf72e164C9bBC74fbD3788045016")
	sender     = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	recipient  = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
	validator  = common.HexToAddress("0xB289f0e6fBDFf8EEE340498a56e1787B303F1B6D")
	errNoCall  = errors.New("unexpected call")
)

type callClient struct {
	t       *testing.T
	outputs map[string][]interface{}
}

func (c *callClient) ChainID() string {
	return "56"
}

func (c *callClient) BlockNumber(context.Context) (uint, error) {
	return 0, errNoCall
}

func (c *callClient) FilterLogs(context.Context, ethereum.FilterQuery) ([]types.Log, error) {
	return nil, errNoCall
}

func (c *callClient) FilterLogsSafe(context.Context, ethereum.FilterQuery) ([]types.Log, error) {
	return nil, errNoCall
}

func (c *callClient) CallContract(_ context.Context, msg ethereum.CallMsg) ([]byte, error) {
	require.Equal(c.t, bridgeAddr, *msg.To)
	for name, method := range bridgeabi.BridgeABI.Methods {
		if bytes.HasPrefix(msg.Data, method.ID) {
			out, ok := c.outputs[name]
			if !ok {
				return nil, errNoCall
			}
			return method.Outputs.Pack(out...)
		}
	}
	return nil, errNoCall
}

func swapLog(t *testing.T, event string, rec *entity.SwapRecord) *entity.Log {
	t.Helper()

	e := bridgeabi.BridgeABI.Events[event]
	data, err := e.Inputs.NonIndexed().Pack(rec.SourceChainID, rec.DestChainID, rec.Amount, rec.Nonce)
	require.NoError(t, err)
	topic0, topic1, topic2 := e.ID, rec.Sender.Hash(), rec.Recipient.Hash()
	return &entity.Log{
		ChainID: "1",
		Address: bridgeAddr,
		Topic0:  &topic0,
		Topic1:  &topic1,
		Topic2:  &topic2,
		Data:    data,
	}
}

func TestBridgeContract_ParseSwapRecord(t *testing.T) {
	t.Parallel()

	c := contract.NewBridgeContract(&callClient{t: t}, bridgeAddr)
	rec := &entity.SwapRecord{
		Sender:        sender,
		Recipient:     recipient,
		SourceChainID: big.NewInt(1),
		DestChainID:   big.NewInt(56),
		Amount:        big.NewInt(1000),
		Nonce:         big.NewInt(5),
	}

	event, got, err := c.ParseSwapRecord(swapLog(t, "SwapInitialized", rec))
	require.NoError(t, err)
	require.Equal(t, bridgeabi.SwapInitialized, event)
	require.Equal(t, rec, got)

	event, got, err = c.ParseSwapRecord(swapLog(t, "Redeemed", rec))
	require.NoError(t, err)
	require.Equal(t, bridgeabi.Redeemed, event)
	require.Equal(t, rec, got)

	unknown := common.HexToHash("0x01")
	_, _, err = c.ParseSwapRecord(&entity.Log{Topic0: &unknown})
	require.ErrorIs(t, err, contract.ErrUnexpectedEvent)
}

func TestBridgeContract_Calls(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := contract.NewBridgeContract(&callClient{t: t, outputs: map[string][]interface{}{
		"validator": {validator},
		"admin":     {sender},
		"redeemed":  {true},
	}}, bridgeAddr)

	addr, err := c.Validator(ctx)
	require.NoError(t, err)
	require.Equal(t, validator, addr)

	addr, err = c.Admin(ctx)
	require.NoError(t, err)
	require.Equal(t, sender, addr)

	redeemed, err := c.IsRedeemed(ctx, big.NewInt(3))
	require.NoError(t, err)
	require.True(t, redeemed)
}

func TestBridgeContract_CallError(t *testing.T) {
	t.Parallel()

	c := contract.NewBridgeContract(&callClient{t: t}, bridgeAddr)
	_, err := c.Validator(context.Background())
	require.ErrorIs(t, err, errNoCall)
}

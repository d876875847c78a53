package contract

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/tokenbridge-core/contract/abi"
	"github.com/omni/tokenbridge-core/entity"
	"github.com/omni/tokenbridge-core/ethclient"
)

type Contract struct {
	Address common.Address
	client  ethclient.Client
	abi     *abi.ABI
}

func NewContract(client ethclient.Client, addr common.Address, abi *abi.ABI) *Contract {
	return &Contract{addr, client, abi}
}

func (c *Contract) AllEvents() map[string]bool {
	return c.abi.AllEvents()
}

// Call makes an eth_call to a view method and unpacks its outputs.
func (c *Contract) Call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("can't encode abi calldata: %w", err)
	}
	res, err := c.client.CallContract(ctx, ethereum.CallMsg{
		To:   &c.Address,
		Data: data,
	})
	if err != nil {
		return nil, fmt.Errorf("can't call %s(...): %w", method, err)
	}
	out, err := c.abi.Unpack(method, res)
	if err != nil {
		return nil, fmt.Errorf("can't decode %s(...) result: %w", method, err)
	}
	return out, nil
}

func (c *Contract) ParseLog(log *entity.Log) (string, map[string]interface{}, error) {
	return c.abi.ParseLog(log)
}

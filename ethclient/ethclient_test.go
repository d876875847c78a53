package ethclient_test

import (
	"context"
	"math/big"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"

	"github.com/omni/tokenbridge-core/ethclient"
)

var bridgeAddr = common.HexToAddress("0x4aa42145Aa6Ebf72e164C9bBC74fbD3788045016")

type ethService struct {
	head uint64
}

func (s *ethService) ChainId() *hexutil.Big {
	return (*hexutil.Big)(big.NewInt(56))
}

func (s *ethService) BlockNumber() hexutil.Uint64 {
	return hexutil.Uint64(s.head)
}

func (s *ethService) GetLogs(arg map[string]interface{}) []types.Log {
	return []types.Log{{
		Address:     bridgeAddr,
		Topics:      []common.Hash{common.HexToHash("0x01")},
		Data:        []byte{1, 2, 3},
		BlockNumber: 100,
		TxHash:      common.HexToHash("0xaa"),
		BlockHash:   common.HexToHash("0xbb"),
	}}
}

func (s *ethService) Call(arg map[string]interface{}, block string) hexutil.Bytes {
	return hexutil.Bytes{0xde, 0xad}
}

func newServer(t *testing.T) string {
	t.Helper()

	srv := rpc.NewServer()
	require.NoError(t, srv.RegisterName("eth", &ethService{head: 120}))
	httpSrv := httptest.NewServer(srv)
	t.Cleanup(func() {
		httpSrv.Close()
		srv.Stop()
	})
	return httpSrv.URL
}

func TestNewClient_ChainID(t *testing.T) {
	t.Parallel()

	url := newServer(t)

	_, err := ethclient.NewClient(url, time.Second, "1")
	require.ErrorIs(t, err, ethclient.ErrIncompatibleChainID)

	client, err := ethclient.NewClient(url, time.Second, "56")
	require.NoError(t, err)
	require.Equal(t, "56", client.ChainID())
}

func TestClient_Requests(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client, err := ethclient.NewClient(newServer(t), time.Second, "56")
	require.NoError(t, err)

	head, err := client.BlockNumber(ctx)
	require.NoError(t, err)
	require.Equal(t, uint(120), head)

	q := ethereum.FilterQuery{
		FromBlock: big.NewInt(90),
		ToBlock:   big.NewInt(110),
		Addresses: []common.Address{bridgeAddr},
	}
	logs, err := client.FilterLogs(ctx, q)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, bridgeAddr, logs[0].Address)

	logs, err = client.FilterLogsSafe(ctx, q)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, uint64(100), logs[0].BlockNumber)

	res, err := client.CallContract(ctx, ethereum.CallMsg{To: &bridgeAddr})
	require.NoError(t, err)
	require.Equal(t, []byte{0xde, 0xad}, res)
}

func TestClient_FilterLogsSafe(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client, err := ethclient.NewClient(newServer(t), time.Second, "56")
	require.NoError(t, err)

	_, err = client.FilterLogsSafe(ctx, ethereum.FilterQuery{FromBlock: big.NewInt(100), ToBlock: big.NewInt(130)})
	require.ErrorIs(t, err, ethclient.ErrNodeIsNotSynced)

	_, err = client.FilterLogsSafe(ctx, ethereum.FilterQuery{FromBlock: big.NewInt(100)})
	require.ErrorIs(t, err, ethclient.ErrInvalidLogsQuery)

	hash := common.HexToHash("0x01")
	_, err = client.FilterLogsSafe(ctx, ethereum.FilterQuery{BlockHash: &hash, ToBlock: big.NewInt(1)})
	require.ErrorIs(t, err, ethclient.ErrInvalidLogsQuery)
}

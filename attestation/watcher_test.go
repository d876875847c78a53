package attestation_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/omni/tokenbridge-core/attestation"
	"github.com/omni/tokenbridge-core/config"
	"github.com/omni/tokenbridge-core/contract"
	"github.com/omni/tokenbridge-core/contract/bridgeabi"
	"github.com/omni/tokenbridge-core/entity"
	"github.com/omni/tokenbridge-core/ethclient"
	"github.com/omni/tokenbridge-core/logging"
	"github.com/omni/tokenbridge-core/message"
	"github.com/omni/tokenbridge-core/repository"
	"github.com/omni/tokenbridge-core/repository/memory"
)

var (
	homeAddr    = common.HexToAddress("0x7301CFA0e1756B71869E93d4e4Dca5c7d0eb0AA6")
	foreignAddr = common.HexToAddress("0x4aa42145Aa6Ebf72e164C9bBC74fbD3788045016")
	sender      = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	recipient   = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")

	errNotImplemented = errors.New("not implemented")
)

type fakeClient struct {
	chainID     string
	head        uint
	logs        []types.Log
	validator   common.Address
	queries     []ethereum.FilterQuery
	onHeadFetch func()
}

func (c *fakeClient) ChainID() string {
	return c.chainID
}

func (c *fakeClient) BlockNumber(context.Context) (uint, error) {
	if c.onHeadFetch != nil {
		c.onHeadFetch()
	}
	return c.head, nil
}

func (c *fakeClient) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	c.queries = append(c.queries, q)
	var res []types.Log
	for _, log := range c.logs {
		if log.BlockNumber >= q.FromBlock.Uint64() && log.BlockNumber <= q.ToBlock.Uint64() {
			res = append(res, log)
		}
	}
	return res, nil
}

func (c *fakeClient) FilterLogsSafe(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	return c.FilterLogs(ctx, q)
}

func (c *fakeClient) CallContract(_ context.Context, msg ethereum.CallMsg) ([]byte, error) {
	method := bridgeabi.BridgeABI.Methods["validator"]
	if len(msg.Data) < 4 || string(msg.Data[:4]) != string(method.ID) {
		return nil, errNotImplemented
	}
	return method.Outputs.Pack(c.validator)
}

func testBridgeConfig() *config.BridgeConfig {
	home := &config.ChainConfig{ChainID: "1", BlockIndexInterval: time.Hour}
	foreign := &config.ChainConfig{ChainID: "56", BlockIndexInterval: time.Hour}
	return &config.BridgeConfig{
		ID:    "eth-bsc",
		Admin: common.HexToAddress("0x01"),
		Home: &config.BridgeSideConfig{
			ChainName:          "mainnet",
			Chain:              home,
			Address:            homeAddr,
			StartBlock:         100,
			BlockConfirmations: 10,
			MaxBlockRangeSize:  5,
		},
		Foreign: &config.BridgeSideConfig{
			ChainName:         "bsc",
			Chain:             foreign,
			Address:           foreignAddr,
			StartBlock:        1,
			MaxBlockRangeSize: 1000,
		},
	}
}

func swapLog(t *testing.T, block uint64, index uint, rec *entity.SwapRecord) types.Log {
	t.Helper()

	e := bridgeabi.BridgeABI.Events["SwapInitialized"]
	data, err := e.Inputs.NonIndexed().Pack(rec.SourceChainID, rec.DestChainID, rec.Amount, rec.Nonce)
	require.NoError(t, err)
	return types.Log{
		Address:     homeAddr,
		Topics:      []common.Hash{e.ID, rec.Sender.Hash(), rec.Recipient.Hash()},
		Data:        data,
		BlockNumber: block,
		Index:       index,
		TxHash:      common.BigToHash(big.NewInt(int64(block*100) + int64(index))),
	}
}

func swapRecord(to common.Address, dest, amount, nonce int64) *entity.SwapRecord {
	return &entity.SwapRecord{
		Sender:        sender,
		Recipient:     to,
		SourceChainID: big.NewInt(1),
		DestChainID:   big.NewInt(dest),
		Amount:        big.NewInt(amount),
		Nonce:         big.NewInt(nonce),
	}
}

func newWatcher(t *testing.T, repo *repository.Repo, client *fakeClient, signer message.Signer) *attestation.Watcher {
	t.Helper()

	cfg := testBridgeConfig()
	w, err := attestation.NewWatcher(context.Background(), logging.New(), repo, cfg, cfg.Home, client, signer)
	require.NoError(t, err)
	return w
}

func TestWatcher_ProcessBlockRange(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	signer, err := message.GenerateKeySigner()
	require.NoError(t, err)
	repo := memory.NewRepo()
	valid := swapRecord(recipient, 56, 1000, 1)
	client := &fakeClient{
		chainID: "1",
		logs: []types.Log{
			swapLog(t, 107, 0, swapRecord(recipient, 56, 0, 3)),
			swapLog(t, 105, 1, valid),
			swapLog(t, 106, 0, swapRecord(recipient, 97, 1000, 2)),
		},
	}
	w := newWatcher(t, repo, client, signer)

	require.NoError(t, w.ProcessBlockRange(ctx, 100, 110))

	res, err := repo.Attestations.FindByNonce(ctx, "eth-bsc", "56", entity.NumericFromUint64(1))
	require.NoError(t, err)
	require.Len(t, res, 1)
	a := res[0]
	require.Equal(t, valid, a.Record())
	require.Equal(t, signer.Address(), a.Signer)
	hash, err := message.Hash(valid)
	require.NoError(t, err)
	require.Equal(t, hash, a.MsgHash)
	sig, err := message.SignatureFromBytes(a.Signature)
	require.NoError(t, err)
	addr, err := message.RecoverSigner(a.MsgHash, sig)
	require.NoError(t, err)
	require.Equal(t, signer.Address(), addr)

	log, err := repo.Logs.GetByID(ctx, a.LogID)
	require.NoError(t, err)
	require.Equal(t, uint(105), log.BlockNumber)

	for _, nonce := range []uint64{2, 3} {
		res, err = repo.Attestations.FindByNonce(ctx, "eth-bsc", "56", entity.NumericFromUint64(nonce))
		require.NoError(t, err)
		require.Empty(t, res)
	}
	res, err = repo.Attestations.FindByNonce(ctx, "eth-bsc", "97", entity.NumericFromUint64(2))
	require.NoError(t, err)
	require.Empty(t, res)

	cursor, err := repo.LogsCursors.GetByChainIDAndAddress(ctx, "1", homeAddr)
	require.NoError(t, err)
	require.Equal(t, uint(110), cursor.LastProcessedBlock)

	require.Len(t, client.queries, 1)
	require.Equal(t, [][]common.Hash{{bridgeabi.SwapInitializedEventSignature}}, client.queries[0].Topics)
	require.Equal(t, []common.Address{homeAddr}, client.queries[0].Addresses)
}

func TestWatcher_DuplicateNonce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	signer, err := message.GenerateKeySigner()
	require.NoError(t, err)
	repo := memory.NewRepo()
	other := common.HexToAddress("0x90F79bf6EB2c4f870365E785982E1f101E93b906")
	client := &fakeClient{
		chainID: "1",
		logs: []types.Log{
			swapLog(t, 101, 0, swapRecord(recipient, 56, 10, 4)),
			swapLog(t, 102, 0, swapRecord(other, 56, 20, 4)),
		},
	}
	w := newWatcher(t, repo, client, signer)

	require.NoError(t, w.ProcessBlockRange(ctx, 100, 104))
	// reprocessing the same range is idempotent
	require.NoError(t, w.ProcessBlockRange(ctx, 100, 104))

	res, err := repo.Attestations.FindByNonce(ctx, "eth-bsc", "56", entity.NumericFromUint64(4))
	require.NoError(t, err)
	require.Len(t, res, 2)
	require.Equal(t, recipient, res[0].Recipient)
	require.Equal(t, other, res[1].Recipient)
}

func TestWatcher_Run(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	signer, err := message.GenerateKeySigner()
	require.NoError(t, err)
	repo := memory.NewRepo()
	client := &fakeClient{
		chainID:     "1",
		head:        120,
		logs:        []types.Log{swapLog(t, 108, 0, swapRecord(recipient, 56, 5, 9))},
		onHeadFetch: cancel,
	}
	w := newWatcher(t, repo, client, signer)

	w.Run(ctx)

	require.Len(t, client.queries, 3)
	require.Equal(t, uint64(100), client.queries[0].FromBlock.Uint64())
	require.Equal(t, uint64(104), client.queries[0].ToBlock.Uint64())
	require.Equal(t, uint64(110), client.queries[2].FromBlock.Uint64())
	require.Equal(t, uint64(110), client.queries[2].ToBlock.Uint64())

	cursor, err := repo.LogsCursors.GetByChainIDAndAddress(context.Background(), "1", homeAddr)
	require.NoError(t, err)
	require.Equal(t, uint(110), cursor.LastProcessedBlock)
	res, err := repo.Attestations.FindByNonce(context.Background(), "eth-bsc", "56", entity.NumericFromUint64(9))
	require.NoError(t, err)
	require.Len(t, res, 1)

	// a restarted watcher resumes from the stored cursor
	client.queries = nil
	client.head = 125
	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()
	client.onHeadFetch = cancel
	newWatcher(t, repo, client, signer).Run(ctx)
	require.Len(t, client.queries, 1)
	require.Equal(t, uint64(111), client.queries[0].FromBlock.Uint64())
	require.Equal(t, uint64(115), client.queries[0].ToBlock.Uint64())
}

func TestWatcher_CheckValidator(t *testing.T) {
	t.Parallel()

	signer, err := message.GenerateKeySigner()
	require.NoError(t, err)
	repo := memory.NewRepo()
	w := newWatcher(t, repo, &fakeClient{chainID: "1"}, signer)

	dest := contract.NewBridgeContract(&fakeClient{chainID: "56", validator: signer.Address()}, foreignAddr)
	require.NoError(t, w.CheckValidator(context.Background(), dest))
}

func TestNewWatcher_ChainMismatch(t *testing.T) {
	t.Parallel()

	signer, err := message.GenerateKeySigner()
	require.NoError(t, err)
	cfg := testBridgeConfig()
	_, err = attestation.NewWatcher(context.Background(), logging.New(), memory.NewRepo(), cfg, cfg.Home, &fakeClient{chainID: "56"}, signer)
	require.Error(t, err)
}

func TestService_Run(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	signer, err := message.GenerateKeySigner()
	require.NoError(t, err)
	repo := memory.NewRepo()
	home := &fakeClient{chainID: "1", head: 105, validator: signer.Address(), onHeadFetch: cancel}
	foreign := &fakeClient{chainID: "56", head: 3, validator: signer.Address(), onHeadFetch: cancel}

	s, err := attestation.NewService(ctx, logging.New(), repo, testBridgeConfig(), home, foreign, signer)
	require.NoError(t, err)
	require.NoError(t, s.Run(ctx))

	cursor, err := repo.LogsCursors.GetByChainIDAndAddress(context.Background(), "56", foreignAddr)
	require.NoError(t, err)
	require.Equal(t, uint(3), cursor.LastProcessedBlock)

	_, err = attestation.NewService(context.Background(), logging.New(), repo, testBridgeConfig(), foreign, home, signer)
	require.ErrorIs(t, err, ethclient.ErrIncompatibleChainID)
}

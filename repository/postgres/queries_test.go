package postgres

import (
	"errors"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/omni/tokenbridge-core/entity"
)

type execResult struct {
	rows int64
	err  error
}

func (r execResult) LastInsertId() (int64, error) {
	return 0, errors.New("not supported")
}

func (r execResult) RowsAffected() (int64, error) {
	return r.rows, r.err
}

func TestInsertRedemptionQuery(t *testing.T) {
	t.Parallel()

	red := &entity.Redemption{
		BridgeID:  "eth-bsc",
		ChainID:   "56",
		Nonce:     entity.NumericFromUint64(7),
		MsgHash:   common.HexToHash("0x69839af4"),
		Sender:    common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"),
		Recipient: common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC"),
		Amount:    entity.NumericFromUint64(1000),
	}
	q, args, err := insertRedemptionQuery("redemptions", red).ToSql()
	require.NoError(t, err)
	require.Equal(t, "INSERT INTO redemptions (bridge_id,chain_id,nonce,msg_hash,sender,recipient,amount) "+
		"VALUES ($1,$2,$3,$4,$5,$6,$7) ON CONFLICT (bridge_id, chain_id, nonce) DO NOTHING", q)
	require.Len(t, args, 7)
	require.Equal(t, "eth-bsc", args[0])
	require.Equal(t, "56", args[1])
	require.Equal(t, red.Nonce, args[2])
}

func TestRedemptionCreated(t *testing.T) {
	t.Parallel()

	require.NoError(t, redemptionCreated(execResult{rows: 1}))
	require.ErrorIs(t, redemptionCreated(execResult{rows: 0}), entity.ErrRedemptionExists)

	errRows := errors.New("driver does not report rows")
	err := redemptionCreated(execResult{err: errRows})
	require.ErrorIs(t, err, errRows)
	require.NotErrorIs(t, err, entity.ErrRedemptionExists)
}

func TestSelectAuthorizationQuery(t *testing.T) {
	t.Parallel()

	q, args, err := selectAuthorizationQuery("authorizations", "eth-bsc", "56", false).ToSql()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(q, "SELECT * FROM authorizations WHERE "), q)
	require.Contains(t, q, "bridge_id = $1")
	require.Contains(t, q, "chain_id = $2")
	require.NotContains(t, q, "FOR UPDATE")
	require.Equal(t, []interface{}{"eth-bsc", "56"}, args)

	q, args, err = selectAuthorizationQuery("authorizations", "eth-bsc", "56", true).ToSql()
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(q, " FOR UPDATE"), q)
	require.Equal(t, []interface{}{"eth-bsc", "56"}, args)
}

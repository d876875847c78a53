package abi_test

import (
	"bytes"
	_ "embed"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/omni/tokenbridge-core/contract/abi"
	"github.com/omni/tokenbridge-core/entity"
)

//go:embed test_abi.json
var testJSONABI string

var (
	transferTopic         = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))
	burntTopic            = crypto.Keccak256Hash([]byte("Burnt(uint128,uint256)"))
	validatorChangedTopic = crypto.Keccak256Hash([]byte("ValidatorChanged(address,address)"))
	holderAddr            = common.HexToAddress("0x01")
	holder                = holderAddr.Hash()
	minterAddr            = common.HexToAddress("0x02")
	minter                = minterAddr.Hash()
)

func TestABI_AllEvents(t *testing.T) {
	t.Parallel()

	testABI := abi.MustReadABI(testJSONABI)

	require.Equal(t, map[string]bool{
		"event Transfer(address indexed from, address indexed to, uint256 value)":     true,
		"event Burnt(uint128 amount, uint256 nonce)":                                  true,
		"event ValidatorChanged(address indexed previous, address indexed validator)": true,
	}, testABI.AllEvents())
}

func TestABI_FindMatchingEventABI(t *testing.T) {
	t.Parallel()

	testABI := abi.MustReadABI(testJSONABI)

	for _, test := range []struct {
		Name   string
		Topics []common.Hash
		Event  string
	}{
		{"all indexed topics", []common.Hash{transferTopic, holder, minter}, "Transfer"},
		{"no indexed topics", []common.Hash{burntTopic}, "Burnt"},
		{"missing indexed topic", []common.Hash{transferTopic, holder}, ""},
		{"extra topic", []common.Hash{transferTopic, holder, minter, holder}, ""},
		{"unknown topic", []common.Hash{crypto.Keccak256Hash([]byte("Unknown()"))}, ""},
	} {
		test := test
		t.Run(test.Name, func(t *testing.T) {
			t.Parallel()

			event := testABI.FindMatchingEventABI(test.Topics)
			if test.Event == "" {
				require.Nil(t, event)
				return
			}
			require.NotNil(t, event)
			require.Equal(t, test.Event, event.Name)
		})
	}
}

func TestABI_ParseLog(t *testing.T) {
	t.Parallel()

	testABI := abi.MustReadABI(testJSONABI)

	value := big.NewInt(1000)
	valueWord := common.BigToHash(value).Bytes()

	t.Run("should parse transfer event", func(t *testing.T) {
		t.Parallel()
		log := &entity.Log{Topic0: &transferTopic, Topic1: &holder, Topic2: &minter, Data: valueWord}
		event, data, err := testABI.ParseLog(log)
		require.NoError(t, err)
		require.Equal(t, "event Transfer(address indexed from, address indexed to, uint256 value)", event)
		require.Equal(t, map[string]interface{}{
			"from":  holderAddr,
			"to":    minterAddr,
			"value": value,
		}, data)
	})

	t.Run("should reject log without topics", func(t *testing.T) {
		t.Parallel()
		event, data, err := testABI.ParseLog(&entity.Log{Data: valueWord})
		require.ErrorIs(t, err, abi.ErrInvalidEvent)
		require.Empty(t, event)
		require.Empty(t, data)
	})

	t.Run("should skip unknown event", func(t *testing.T) {
		t.Parallel()
		event, data, err := testABI.ParseLog(&entity.Log{Topic0: &transferTopic, Data: valueWord})
		require.NoError(t, err)
		require.Empty(t, event)
		require.Empty(t, data)
	})

	t.Run("should decode event without indexed fields", func(t *testing.T) {
		t.Parallel()
		log := &entity.Log{Topic0: &burntTopic, Data: bytes.Repeat(valueWord, 2)}
		event, data, err := testABI.ParseLog(log)
		require.NoError(t, err)
		require.Equal(t, "event Burnt(uint128 amount, uint256 nonce)", event)
		require.Equal(t, map[string]interface{}{
			"amount": value,
			"nonce":  value,
		}, data)
	})

	t.Run("should decode event with only indexed fields", func(t *testing.T) {
		t.Parallel()
		log := &entity.Log{Topic0: &validatorChangedTopic, Topic1: &holder, Topic2: &minter}
		event, data, err := testABI.ParseLog(log)
		require.NoError(t, err)
		require.Equal(t, "event ValidatorChanged(address indexed previous, address indexed validator)", event)
		require.Equal(t, map[string]interface{}{
			"previous":  holderAddr,
			"validator": minterAddr,
		}, data)
	})

	t.Run("should fail on truncated data", func(t *testing.T) {
		t.Parallel()
		event, data, err := testABI.ParseLog(&entity.Log{Topic0: &burntTopic, Data: valueWord})
		require.Error(t, err)
		require.Contains(t, err.Error(), "length insufficient")
		require.Empty(t, event)
		require.Empty(t, data)
	})
}

package utils_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/omni/tokenbridge-core/utils"
)

func TestRestoreSignerAddress(t *testing.T) {
	t.Parallel()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	data := crypto.Keccak256([]byte("swap"))

	sig, err := crypto.Sign(accounts.TextHash(data), key)
	require.NoError(t, err)

	addr, err := utils.RestoreSignerAddress(data, sig)
	require.NoError(t, err)
	require.Equal(t, crypto.PubkeyToAddress(key.PublicKey), addr)

	sig[64] += 27
	orig := common.CopyBytes(sig)
	addr, err = utils.RestoreSignerAddress(data, sig)
	require.NoError(t, err)
	require.Equal(t, crypto.PubkeyToAddress(key.PublicKey), addr)
	require.Equal(t, orig, sig)
}

func TestRestoreSignerAddress_Invalid(t *testing.T) {
	t.Parallel()

	data := crypto.Keccak256([]byte("swap"))

	_, err := utils.RestoreSignerAddress(data, make([]byte, 64))
	require.ErrorIs(t, err, utils.ErrInvalidSignatureLength)

	_, err = utils.RestoreSignerAddress(data, make([]byte, 65))
	require.ErrorIs(t, err, utils.ErrInvalidSignatureValues)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	sig, err := crypto.Sign(accounts.TextHash(data), key)
	require.NoError(t, err)
	sig[64] = 5
	_, err = utils.RestoreSignerAddress(data, sig)
	require.ErrorIs(t, err, utils.ErrInvalidSignatureValues)
}

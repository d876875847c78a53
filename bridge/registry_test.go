package bridge_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omni/tokenbridge-core/bridge"
	"github.com/omni/tokenbridge-core/logging"
	"github.com/omni/tokenbridge-core/message"
	"github.com/omni/tokenbridge-core/repository/memory"
)

func TestRegistry_SetValidator(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	oldValidator := newValidator(t)
	oldAddr := oldValidator.Address()
	newValidatorKey := newValidator(t)
	ledger := bridge.NewMemoryLedger()
	b := newBridge(t, memory.NewRepo(), ledger, instanceConfig(56, 1, &oldAddr))

	err := b.SetValidator(ctx, attacker, attacker)
	require.ErrorIs(t, err, bridge.ErrUnauthorized)
	require.Equal(t, "Unauthorized", bridge.ErrorCode(err))
	validator, err := b.Registry().Validator(ctx)
	require.NoError(t, err)
	require.Equal(t, oldAddr, validator)

	require.NoError(t, b.SetValidator(ctx, admin, newValidatorKey.Address()))
	validator, err = b.Registry().Validator(ctx)
	require.NoError(t, err)
	require.Equal(t, newValidatorKey.Address(), validator)
	adminAddr, err := b.Registry().Admin(ctx)
	require.NoError(t, err)
	require.Equal(t, admin, adminAddr)

	_, err = b.Redeem(ctx, recipient, sender, big.NewInt(1000), big.NewInt(0), signed(t, oldValidator, sender, recipient, 1000, 0))
	require.ErrorIs(t, err, bridge.ErrInvalidSignature)
	_, err = b.Redeem(ctx, recipient, sender, big.NewInt(1000), big.NewInt(0), signed(t, newValidatorKey, sender, recipient, 1000, 0))
	require.NoError(t, err)
}

func TestRegistry_DefaultValidatorIsAdmin(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	adminKey, err := message.NewKeySignerFromHex("0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	require.NoError(t, err)
	require.Equal(t, admin, adminKey.Address())

	b := newBridge(t, memory.NewRepo(), bridge.NewMemoryLedger(), instanceConfig(56, 1, nil))
	validator, err := b.Registry().Validator(ctx)
	require.NoError(t, err)
	require.Equal(t, admin, validator)

	_, err = b.Redeem(ctx, recipient, sender, big.NewInt(1), big.NewInt(0), signed(t, adminKey, sender, recipient, 1, 0))
	require.NoError(t, err)
}

func TestRegistry_Reopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.NewRepo()
	first := newValidator(t).Address()
	second := newValidator(t).Address()

	r, err := bridge.NewRegistry(ctx, logging.New(), repo, testBridgeID, "56", admin, &first)
	require.NoError(t, err)
	require.NoError(t, r.SetValidator(ctx, admin, second))

	// stored state wins over the configured validator
	r, err = bridge.NewRegistry(ctx, logging.New(), repo, testBridgeID, "56", admin, &first)
	require.NoError(t, err)
	validator, err := r.Validator(ctx)
	require.NoError(t, err)
	require.Equal(t, second, validator)

	_, err = bridge.NewRegistry(ctx, logging.New(), repo, testBridgeID, "56", attacker, nil)
	require.ErrorIs(t, err, bridge.ErrAdminMismatch)

	// instances on other chains are independent
	r, err = bridge.NewRegistry(ctx, logging.New(), repo, testBridgeID, "1", attacker, nil)
	require.NoError(t, err)
	validator, err = r.Validator(ctx)
	require.NoError(t, err)
	require.Equal(t, attacker, validator)
}

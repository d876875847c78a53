package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omni/tokenbridge-core/config"
)

const hardhatKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var tupleArgs = []string{
	"--from", "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
	"--to", "0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC",
	"--chain-from", "1",
	"--chain-to", "56",
	"--amount", "1000",
	"--nonce", "0",
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func field(t *testing.T, out, name string) string {
	t.Helper()

	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, name+":") {
			return strings.TrimSpace(strings.TrimPrefix(line, name+":"))
		}
	}
	require.Failf(t, "field not found", "%s in %q", name, out)
	return ""
}

func TestHashCmd(t *testing.T) {
	t.Parallel()

	out, err := run(t, append([]string{"hash"}, tupleArgs...)...)
	require.NoError(t, err)
	require.Equal(t, "0x69839af40f5e0eb7d260e506ddf40841746f27daee94d200eb215e6c5ab04434\n", out)

	_, err = run(t, "hash", "--from", "0x01")
	require.Error(t, err)

	args := append([]string{"hash"}, tupleArgs...)
	args[2] = "not-an-address"
	_, err = run(t, args...)
	require.ErrorIs(t, err, errInvalidAddress)

	args = append([]string{"hash"}, tupleArgs...)
	args[len(args)-1] = "12x"
	_, err = run(t, args...)
	require.ErrorIs(t, err, errInvalidNumber)
}

func TestSignAndRecoverCmd(t *testing.T) {
	out, err := run(t, append([]string{"sign", "--key", hardhatKey}, tupleArgs...)...)
	require.NoError(t, err)
	require.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", field(t, out, "signer"))
	hash := field(t, out, "hash")
	require.Equal(t, "0x69839af40f5e0eb7d260e506ddf40841746f27daee94d200eb215e6c5ab04434", hash)
	sig := field(t, out, "signature")
	require.Len(t, sig, 132)
	require.Contains(t, []string{"27", "28"}, field(t, out, "v"))

	t.Setenv(validatorKeyEnv, hardhatKey)
	envOut, err := run(t, append([]string{"sign"}, tupleArgs...)...)
	require.NoError(t, err)
	require.Equal(t, sig, field(t, envOut, "signature"))

	out, err = run(t, "recover", "--hash", hash, "--signature", sig)
	require.NoError(t, err)
	require.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266\n", out)

	_, err = run(t, "recover", "--hash", hash, "--signature", "0x1234")
	require.Error(t, err)
}

func TestSignCmd_MissingKey(t *testing.T) {
	t.Setenv(validatorKeyEnv, "")

	_, err := run(t, append([]string{"sign"}, tupleArgs...)...)
	require.ErrorIs(t, err, errMissingKey)
}

func TestSimulateCmd(t *testing.T) {
	t.Parallel()

	out, err := run(t, "simulate", "--amount", "250", "--nonce", "3")
	require.NoError(t, err)
	require.Equal(t, "250 credited to 0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC on chain 56", field(t, out, "redeemed"))
	require.Equal(t, "AlreadyRedeemed", field(t, out, "replay"))

	_, err = run(t, "simulate", "--amount", "0")
	require.Error(t, err)
	require.Contains(t, err.Error(), "ZeroAmount")

	_, err = run(t, "simulate", "--chain-from", "1", "--chain-to", "1")
	require.Error(t, err)
}

func TestLookupInstance(t *testing.T) {
	t.Parallel()

	cfg, err := config.ReadConfigWithEnv([]byte(`
chains:
  mainnet:
    chain_id: 1
  bsc:
    chain_id: 56
bridges:
  eth-bsc:
    admin: 0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266
    home:
      chain: mainnet
    foreign:
      chain: bsc
`))
	require.NoError(t, err)

	for _, chain := range []string{"56", "056"} {
		inst, err := lookupInstance(cfg, "eth-bsc", chain)
		require.NoError(t, err, chain)
		require.Equal(t, "56", inst.ChainID.String())
		require.Equal(t, "1", inst.CounterpartyChainID.String())
	}

	_, err = lookupInstance(cfg, "eth-bsc", "bsc")
	require.ErrorIs(t, err, config.ErrInvalidChainID)
	_, err = lookupInstance(cfg, "eth-bsc", "97")
	require.ErrorIs(t, err, config.ErrUnknownSide)
	_, err = lookupInstance(cfg, "unknown", "56")
	require.ErrorIs(t, err, config.ErrUnknownBridge)
}

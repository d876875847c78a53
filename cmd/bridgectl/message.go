package main

import (
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/omni/tokenbridge-core/entity"
	"github.com/omni/tokenbridge-core/message"
)

const validatorKeyEnv = "VALIDATOR_PRIVATE_KEY"

var (
	errInvalidAddress = errors.New("invalid address")
	errInvalidNumber  = errors.New("invalid decimal number")
	errMissingKey     = errors.New("private key is not specified")
)

func addRecordFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("from", "", "sender address")
	flags.String("to", "", "recipient address")
	flags.String("chain-from", "", "source chain id")
	flags.String("chain-to", "", "destination chain id")
	flags.String("amount", "", "swap amount")
	flags.String("nonce", "", "swap nonce")
	for _, name := range []string{"from", "to", "chain-from", "chain-to", "amount", "nonce"} {
		_ = cmd.MarkFlagRequired(name)
	}
}

func addressFlag(cmd *cobra.Command, name string) (common.Address, error) {
	s, _ := cmd.Flags().GetString(name)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("--%s %q: %w", name, s, errInvalidAddress)
	}
	return common.HexToAddress(s), nil
}

func numberFlag(cmd *cobra.Command, name string) (*big.Int, error) {
	s, _ := cmd.Flags().GetString(name)
	x, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("--%s %q: %w", name, s, errInvalidNumber)
	}
	return x, nil
}

func recordFromFlags(cmd *cobra.Command) (*entity.SwapRecord, error) {
	rec := new(entity.SwapRecord)
	var err error
	if rec.Sender, err = addressFlag(cmd, "from"); err != nil {
		return nil, err
	}
	if rec.Recipient, err = addressFlag(cmd, "to"); err != nil {
		return nil, err
	}
	for name, dst := range map[string]**big.Int{
		"chain-from": &rec.SourceChainID,
		"chain-to":   &rec.DestChainID,
		"amount":     &rec.Amount,
		"nonce":      &rec.Nonce,
	} {
		if *dst, err = numberFlag(cmd, name); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// signerFromFlags reads --key, falling back to the environment.
func signerFromFlags(cmd *cobra.Command, env string) (*message.KeySigner, error) {
	key, _ := cmd.Flags().GetString("key")
	if key == "" {
		key = os.Getenv(env)
	}
	if key == "" {
		return nil, fmt.Errorf("use --key or $%s: %w", env, errMissingKey)
	}
	return message.NewKeySignerFromHex(key)
}

func newHashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash",
		Short: "Compute the canonical hash of a swap",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := recordFromFlags(cmd)
			if err != nil {
				return err
			}
			hash, err := message.Hash(rec)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash.Hex())
			return nil
		},
	}
	addRecordFlags(cmd)
	return cmd
}

func newSignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign the canonical message of a swap with the validator key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := recordFromFlags(cmd)
			if err != nil {
				return err
			}
			signer, err := signerFromFlags(cmd, validatorKeyEnv)
			if err != nil {
				return err
			}
			hash, sig, err := message.SignRecord(signer, rec)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "signer:    %s\n", signer.Address().Hex())
			fmt.Fprintf(out, "hash:      %s\n", hash.Hex())
			fmt.Fprintf(out, "signature: %s\n", sig)
			fmt.Fprintf(out, "v:         %d\n", sig.V)
			fmt.Fprintf(out, "r:         %s\n", sig.R.Hex())
			fmt.Fprintf(out, "s:         %s\n", sig.S.Hex())
			return nil
		},
	}
	addRecordFlags(cmd)
	cmd.Flags().String("key", "", "hex encoded validator private key")
	return cmd
}

func newRecoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Recover the signer of a canonical message hash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hashStr, _ := cmd.Flags().GetString("hash")
			sigStr, _ := cmd.Flags().GetString("signature")
			sig, err := message.ParseSignature(sigStr)
			if err != nil {
				return err
			}
			addr, err := message.RecoverSigner(common.HexToHash(hashStr), sig)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), addr.Hex())
			return nil
		},
	}
	cmd.Flags().String("hash", "", "canonical message hash")
	cmd.Flags().String("signature", "", "hex encoded 65 byte signature")
	_ = cmd.MarkFlagRequired("hash")
	_ = cmd.MarkFlagRequired("signature")
	return cmd
}

package main

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/omni/tokenbridge-core/bridge"
	"github.com/omni/tokenbridge-core/config"
	"github.com/omni/tokenbridge-core/logging"
	"github.com/omni/tokenbridge-core/message"
	"github.com/omni/tokenbridge-core/repository/memory"
)

var (
	simSender    = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	simRecipient = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
)

type simulation struct {
	source, dest             *bridge.Bridge
	sourceLedger, destLedger *bridge.MemoryLedger
	validator                *message.KeySigner
}

func newSimulation(ctx context.Context, sourceChain, destChain *big.Int) (*simulation, error) {
	logger := logging.New()
	logger.SetLevel(logrus.WarnLevel)
	validator, err := message.GenerateKeySigner()
	if err != nil {
		return nil, err
	}
	admin := validator.Address()
	addr := validator.Address()
	sim := &simulation{
		sourceLedger: bridge.NewMemoryLedger(),
		destLedger:   bridge.NewMemoryLedger(),
		validator:    validator,
	}
	sim.source, err = bridge.New(ctx, logger, memory.NewRepo(), sim.sourceLedger, &config.InstanceConfig{
		BridgeID:            "simulation",
		ChainID:             sourceChain,
		CounterpartyChainID: destChain,
		Admin:               admin,
		Validator:           &addr,
	})
	if err != nil {
		return nil, err
	}
	sim.dest, err = bridge.New(ctx, logger, memory.NewRepo(), sim.destLedger, &config.InstanceConfig{
		BridgeID:            "simulation",
		ChainID:             destChain,
		CounterpartyChainID: sourceChain,
		Admin:               admin,
		Validator:           &addr,
	})
	if err != nil {
		return nil, err
	}
	return sim, nil
}

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a swap, its attestation and redemption against in-memory bridge instances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			amount, err := numberFlag(cmd, "amount")
			if err != nil {
				return err
			}
			nonce, err := numberFlag(cmd, "nonce")
			if err != nil {
				return err
			}
			sourceChain, err := numberFlag(cmd, "chain-from")
			if err != nil {
				return err
			}
			destChain, err := numberFlag(cmd, "chain-to")
			if err != nil {
				return err
			}

			sim, err := newSimulation(ctx, sourceChain, destChain)
			if err != nil {
				return err
			}
			if err = sim.sourceLedger.Credit(ctx, simSender, amount); err != nil {
				return err
			}

			rec, err := sim.source.Swap(ctx, simSender, simRecipient, amount, nonce)
			if err != nil {
				return fmt.Errorf("swap failed: %w", err)
			}
			hash, sig, err := message.SignRecord(sim.validator, rec)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "swap:      %s -> %s, %s on chain %s, nonce %s\n", rec.Sender.Hex(), rec.Recipient.Hex(), rec.Amount, rec.SourceChainID, rec.Nonce)
			fmt.Fprintf(out, "hash:      %s\n", hash.Hex())
			fmt.Fprintf(out, "signature: %s\n", sig)

			if _, err = sim.dest.Redeem(ctx, simRecipient, simSender, amount, nonce, sig); err != nil {
				return fmt.Errorf("redeem failed: %w", err)
			}
			fmt.Fprintf(out, "redeemed:  %s credited to %s on chain %s\n", sim.destLedger.BalanceOf(simRecipient), simRecipient.Hex(), destChain)

			_, err = sim.dest.Redeem(ctx, simRecipient, simSender, amount, nonce, sig)
			fmt.Fprintf(out, "replay:    %s\n", bridge.ErrorCode(err))
			return nil
		},
	}
	flags := cmd.Flags()
	flags.String("amount", "1000", "swap amount")
	flags.String("nonce", "0", "swap nonce")
	flags.String("chain-from", "1", "source chain id")
	flags.String("chain-to", "56", "destination chain id")
	return cmd
}

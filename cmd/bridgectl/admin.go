package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/omni/tokenbridge-core/bridge"
	"github.com/omni/tokenbridge-core/config"
	"github.com/omni/tokenbridge-core/db"
	"github.com/omni/tokenbridge-core/entity"
	"github.com/omni/tokenbridge-core/logging"
	"github.com/omni/tokenbridge-core/repository"
)

const adminKeyEnv = "ADMIN_PRIVATE_KEY"

type instance struct {
	cfg      *config.InstanceConfig
	repo     *repository.Repo
	registry *bridge.Registry
	close    func()
}

func addInstanceFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("config", "config.yml", "path to the config file")
	flags.String("bridge", "", "bridge id")
	flags.String("chain", "", "chain id of the bridge instance")
	_ = cmd.MarkFlagRequired("bridge")
	_ = cmd.MarkFlagRequired("chain")
}

// lookupInstance resolves the instance config of bridgeID on the chain
// named by the --chain flag, which may carry leading zeros.
func lookupInstance(cfg *config.Config, bridgeID, chain string) (*config.InstanceConfig, error) {
	bridgeCfg, ok := cfg.Bridges[bridgeID]
	if !ok {
		return nil, fmt.Errorf("bridge %s: %w", bridgeID, config.ErrUnknownBridge)
	}
	id, ok := new(big.Int).SetString(chain, 10)
	if !ok {
		return nil, fmt.Errorf("chain %q: %w", chain, config.ErrInvalidChainID)
	}
	return bridgeCfg.Instance(id.String())
}

func openInstance(ctx context.Context, cmd *cobra.Command) (*instance, error) {
	path, _ := cmd.Flags().GetString("config")
	bridgeID, _ := cmd.Flags().GetString("bridge")
	chainID, _ := cmd.Flags().GetString("chain")

	cfg, err := config.ReadConfigFromFile(path)
	if err != nil {
		return nil, err
	}
	logger := logging.New()
	logger.SetLevel(cfg.LogLevel)
	instCfg, err := lookupInstance(cfg, bridgeID, chainID)
	if err != nil {
		return nil, err
	}
	chainID = instCfg.ChainID.String()

	dbConn, err := db.ConnectToDBAndMigrate(cfg.DBConfig)
	if err != nil {
		return nil, fmt.Errorf("can't connect to database: %w", err)
	}
	repo := repository.NewRepo(dbConn)
	logger = logger.WithFields(logrus.Fields{
		"bridge_id": bridgeID,
		"chain_id":  chainID,
	})
	registry, err := bridge.NewRegistry(ctx, logger, repo, bridgeID, chainID, instCfg.Admin, instCfg.Validator)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	return &instance{
		cfg:      instCfg,
		repo:     repo,
		registry: registry,
		close:    func() { _ = dbConn.Close() },
	}, nil
}

func newSetValidatorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-validator",
		Short: "Replace the validator of a bridge instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			validator, err := addressFlag(cmd, "validator")
			if err != nil {
				return err
			}
			admin, err := signerFromFlags(cmd, adminKeyEnv)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			inst, err := openInstance(ctx, cmd)
			if err != nil {
				return err
			}
			defer inst.close()

			if err = inst.registry.SetValidator(ctx, admin.Address(), validator); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "validator of %s on chain %s set to %s\n", inst.cfg.BridgeID, inst.cfg.ChainID, validator.Hex())
			return nil
		},
	}
	addInstanceFlags(cmd)
	cmd.Flags().String("validator", "", "new validator address")
	cmd.Flags().String("key", "", "hex encoded admin private key")
	_ = cmd.MarkFlagRequired("validator")
	return cmd
}

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the authorization state of a bridge instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			inst, err := openInstance(ctx, cmd)
			if err != nil {
				return err
			}
			defer inst.close()

			admin, err := inst.registry.Admin(ctx)
			if err != nil {
				return err
			}
			validator, err := inst.registry.Validator(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "bridge:       %s\n", inst.cfg.BridgeID)
			fmt.Fprintf(out, "chain:        %s\n", inst.cfg.ChainID)
			fmt.Fprintf(out, "counterparty: %s\n", inst.cfg.CounterpartyChainID)
			fmt.Fprintf(out, "admin:        %s\n", admin.Hex())
			fmt.Fprintf(out, "validator:    %s\n", validator.Hex())

			if !cmd.Flags().Changed("nonce") {
				return nil
			}
			nonce, err := numberFlag(cmd, "nonce")
			if err != nil {
				return err
			}
			red, err := inst.repo.Redemptions.GetByNonce(ctx, inst.cfg.BridgeID, inst.cfg.ChainID.String(), entity.NewNumeric(nonce))
			if errors.Is(err, db.ErrNotFound) {
				fmt.Fprintf(out, "nonce %s:     not redeemed\n", nonce)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "nonce %s:     redeemed by %s, amount %s, hash %s\n", nonce, red.Recipient.Hex(), red.Amount, red.MsgHash.Hex())
			return nil
		},
	}
	addInstanceFlags(cmd)
	cmd.Flags().String("nonce", "", "also report whether this nonce is redeemed")
	return cmd
}

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"

	"github.com/omni/tokenbridge-core/attestation"
	"github.com/omni/tokenbridge-core/config"
	"github.com/omni/tokenbridge-core/db"
	"github.com/omni/tokenbridge-core/ethclient"
	"github.com/omni/tokenbridge-core/logging"
	"github.com/omni/tokenbridge-core/message"
	"github.com/omni/tokenbridge-core/repository"
)

var (
	bridgeID  = flag.String("bridgeId", "", "bridgeId to attest swaps in")
	home      = flag.Bool("home", false, "attest swaps initiated on home side")
	foreign   = flag.Bool("foreign", false, "attest swaps initiated on foreign side")
	fromBlock = flag.Uint("fromBlock", 0, "starting block")
	toBlock   = flag.Uint("toBlock", 0, "ending block")
)

func main() {
	flag.Parse()

	logger := logging.New()

	cfg, err := config.ReadConfigFromFile("config.yml")
	if err != nil {
		logger.WithError(err).Fatal("can't read config")
	}
	logger.SetLevel(cfg.LogLevel)

	if *bridgeID == "" {
		logger.Fatal("bridgeId is not specified")
	}
	if *home == *foreign {
		logger.Fatal("exactly one of --home or --foreign should be specified")
	}
	bridgeCfg, ok := cfg.Bridges[*bridgeID]
	if !ok || bridgeCfg == nil {
		logger.WithField("bridge_id", *bridgeID).Fatal("bridge config for given bridgeId is not found")
	}
	if cfg.Attestation == nil || cfg.Attestation.PrivateKey == "" {
		logger.Fatal("attestation private key is not configured")
	}
	signer, err := message.NewKeySignerFromHex(cfg.Attestation.PrivateKey)
	if err != nil {
		logger.WithError(err).Fatal("can't parse attestation private key")
	}
	sideCfg := bridgeCfg.Foreign
	if *home {
		sideCfg = bridgeCfg.Home
	}
	if *fromBlock < sideCfg.StartBlock {
		fromBlock = &sideCfg.StartBlock
	}
	if *toBlock == 0 {
		logger.Fatal("toBlock is not specified")
	}
	if *toBlock < *fromBlock {
		logger.WithFields(logrus.Fields{
			"from_block": *fromBlock,
			"to_block":   *toBlock,
		}).Fatal("toBlock is less than fromBlock")
	}
	if sideCfg.Chain.RPC == nil {
		logger.WithField("chain_id", sideCfg.Chain.ChainID).Fatal("rpc endpoint is not configured")
	}

	dbConn, err := db.ConnectToDBAndMigrate(cfg.DBConfig)
	if err != nil {
		logger.WithError(err).Fatal("can't connect to database and apply migrations")
	}
	defer dbConn.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	repo := repository.NewRepo(dbConn)
	bridgeLogger := logger.WithField("bridge_id", bridgeCfg.ID)
	client, err := ethclient.NewClient(sideCfg.Chain.RPC.Host, sideCfg.Chain.RPC.Timeout, sideCfg.Chain.ChainID)
	if err != nil {
		bridgeLogger.WithError(err).Fatal("can't dial rpc client")
	}

	w, err := attestation.NewWatcher(ctx, bridgeLogger, repo, bridgeCfg, sideCfg, client, signer)
	if err != nil {
		bridgeLogger.WithError(err).Fatal("can't initialize swaps watcher")
	}

	for _, blocksRange := range attestation.SplitBlockRange(*fromBlock, *toBlock, sideCfg.MaxBlockRangeSize) {
		if err = w.ProcessBlockRange(ctx, blocksRange.From, blocksRange.To); err != nil {
			bridgeLogger.WithError(err).WithFields(logrus.Fields{
				"from_block": blocksRange.From,
				"to_block":   blocksRange.To,
			}).Fatal("can't manually process block range")
		}
	}
	bridgeLogger.Info("block range attested")
}

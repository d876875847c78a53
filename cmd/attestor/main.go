package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/omni/tokenbridge-core/attestation"
	"github.com/omni/tokenbridge-core/config"
	"github.com/omni/tokenbridge-core/db"
	"github.com/omni/tokenbridge-core/ethclient"
	"github.com/omni/tokenbridge-core/logging"
	"github.com/omni/tokenbridge-core/message"
	"github.com/omni/tokenbridge-core/presenter"
	"github.com/omni/tokenbridge-core/repository"
)

var errMissingRPC = errors.New("rpc endpoint is not configured")

func dial(chain *config.ChainConfig) (ethclient.Client, error) {
	if chain.RPC == nil || chain.RPC.Host == "" {
		return nil, fmt.Errorf("chain %s: %w", chain.ChainID, errMissingRPC)
	}
	return ethclient.NewClient(chain.RPC.Host, chain.RPC.Timeout, chain.ChainID)
}

func main() {
	logger := logging.New()

	cfg, err := config.ReadConfigFromFile("config.yml")
	if err != nil {
		logger.WithError(err).Fatal("can't read config")
	}
	logger.SetLevel(cfg.LogLevel)

	if cfg.Attestation == nil || cfg.Attestation.PrivateKey == "" {
		logger.Fatal("attestation private key is not configured")
	}
	signer, err := message.NewKeySignerFromHex(cfg.Attestation.PrivateKey)
	if err != nil {
		logger.WithError(err).Fatal("can't parse attestation private key")
	}
	logger = logger.WithField("signer", signer.Address())

	dbConn, err := db.ConnectToDBAndMigrate(cfg.DBConfig)
	if err != nil {
		logger.WithError(err).Fatal("can't connect to database and apply migrations")
	}
	defer dbConn.Close()

	http.Handle("/metrics", promhttp.Handler())
	go func() {
		err := http.ListenAndServe(":2112", nil)
		if err != nil {
			logger.WithError(err).Fatal("can't start listener for prometheus metrics")
		}
	}()

	repo := repository.NewRepo(dbConn)
	if cfg.Presenter != nil {
		pr := presenter.NewPresenter(logger.WithField("service", "presenter"), repo, cfg)
		go func() {
			err := pr.Serve(cfg.Presenter.Host)
			if err != nil {
				logger.WithError(err).Fatal("can't serve presenter")
			}
		}()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	services := make([]*attestation.Service, 0, len(cfg.Bridges))
	for _, bridgeCfg := range cfg.AttestedBridges() {
		bridgeLogger := logger.WithField("bridge_id", bridgeCfg.ID)
		homeClient, err2 := dial(bridgeCfg.Home.Chain)
		if err2 != nil {
			bridgeLogger.WithError(err2).Fatal("can't dial home rpc client")
		}
		foreignClient, err2 := dial(bridgeCfg.Foreign.Chain)
		if err2 != nil {
			bridgeLogger.WithError(err2).Fatal("can't dial foreign rpc client")
		}
		s, err2 := attestation.NewService(ctx, bridgeLogger, repo, bridgeCfg, homeClient, foreignClient, signer)
		if err2 != nil {
			bridgeLogger.WithError(err2).Fatal("can't initialize bridge attestation service")
		}
		services = append(services, s)
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, s := range services {
		s := s
		g.Go(func() error {
			return s.Run(ctx)
		})
	}
	<-ctx.Done()
	logger.Warn("caught termination signal, gracefully terminating")
	if err = g.Wait(); err != nil {
		logger.WithError(err).Error("attestation service failed")
	}
}
